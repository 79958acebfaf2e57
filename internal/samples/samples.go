// Package samples holds the built-in demonstration contract pairs.
// They are static fixtures for the CLI and tests, deliberately kept
// outside the hashing and tree packages.
package samples

import "fmt"

// Dataset is a named pair of contract versions
type Dataset struct {
	Name string
	V1   string
	V2   string
}

// Datasets are the built-in sample contract pairs
var Datasets = []Dataset{
	{
		Name: "Original Demo (Warranty Change & Typo)",
		V1: `
Clause 1: The buyer agrees to pay in full within 30 days.
Clause 2: The seller provides a 1-year warranty.
Clause 3: All disputes will be settled in California.
`,
		V2: `
Clause 1: The buyer agrees to pay in full within 30 days.
Clause 2: The seller provides a 2-year warranty.
Clause 3: All disputes will be settled in California .
`,
	},
	{
		Name: "Identical Contracts",
		V1: `
Agreement: This is a test.
Term: For one year.
`,
		V2: `
Agreement: This is a test.
Term: For one year.
`,
	},
	{
		Name: "Completely Different Contracts",
		V1: `
Service: Web development.
Payment: $5000.
Deadline: 2 weeks.
`,
		V2: `
Product: Software license.
Price: $200.
Support: Email only.
`,
	},
	{
		Name: "One Clause Added to V2",
		V1: `
Section A: Initial terms.
Section B: Payment schedule.
`,
		V2: `
Section A: Initial terms.
Section B: Payment schedule.
Section C: Confidentiality.
`,
	},
}

// ByName returns the dataset with the given name
func ByName(name string) (*Dataset, error) {
	for i := range Datasets {
		if Datasets[i].Name == name {
			return &Datasets[i], nil
		}
	}
	return nil, fmt.Errorf("unknown sample dataset: %s", name)
}

// ByIndex returns the dataset at the given 1-based index
func ByIndex(index int) (*Dataset, error) {
	if index < 1 || index > len(Datasets) {
		return nil, fmt.Errorf("sample index out of range: %d (have %d datasets)", index, len(Datasets))
	}
	return &Datasets[index-1], nil
}
