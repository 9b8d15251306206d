package site

import "math/rand/v2"

// Person is a New Jersey personality shown on the fact card.
type Person struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// People is the fixed pool of fact card entries.
var People = []Person{
	{Name: "Bruce Springsteen", Description: "Boooooorn in the (best state in the) U.S.A."},
	{Name: "Frank Sinatra", Description: "Not sure why he never made a song about New Jersey, New Jersey"},
	{Name: "Meryl Streep", Description: "She is from the town adjacent to mine!"},
	{Name: "Whitney Houston", Description: "She Will Always Love New Jersey"},
	{Name: "Queen Latifah", Description: "Royalty!"},
}

// Fact is the state of the fact card.
type Fact struct {
	Person  Person
	Visible bool
}

// RandomFact picks one person uniformly and makes the card visible.
// A nil rng uses the package-level source.
func RandomFact(rng *rand.Rand) Fact {
	var i int
	if rng == nil {
		i = rand.IntN(len(People))
	} else {
		i = rng.IntN(len(People))
	}
	return Fact{Person: People[i], Visible: true}
}

// Close hides the card.
func (f *Fact) Close() {
	f.Visible = false
}
