package site

// ChartRow is one slice of the pie.
type ChartRow struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// ChartOptions mirror the options handed to the page's chart library.
type ChartOptions struct {
	Title           string   `json:"title"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Colors          []string `json:"colors"`
	BackgroundColor string   `json:"backgroundColor"`
}

// Chart is a static pie chart.
type Chart struct {
	Columns [2]string    `json:"columns"`
	Rows    []ChartRow   `json:"rows"`
	Options ChartOptions `json:"options"`
}

// EggChart returns the breakfast pie chart. Each call returns a fresh copy.
func EggChart() Chart {
	return Chart{
		Columns: [2]string{"Method", "Count"},
		Rows: []ChartRow{
			{Label: "Scrambled", Value: 10},
			{Label: "Sunny side up", Value: 6},
			{Label: "Hard boiled", Value: 4},
			{Label: "In a breakfast sandwich", Value: 7},
			{Label: "Omelet", Value: 5},
		},
		Options: ChartOptions{
			Title:           "Favorite ways to make eggs",
			Width:           500,
			Height:          400,
			Colors:          []string{"#0F1E3D", "#264B96", "#366BD6", "#3D91F2", "#84C0F5"},
			BackgroundColor: "transparent",
		},
	}
}
