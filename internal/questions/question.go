package questions

import "fmt"

// Part identifies the section of the IELTS speaking test a question belongs to.
type Part string

const (
	Part1 Part = "Part 1" // Familiar topics: home, work, hobbies
	Part3 Part = "Part 3" // Abstract discussion linked to the Part 2 topic
)

// AllParts returns the parts in test order.
func AllParts() []Part {
	return []Part{Part1, Part3}
}

// Valid reports whether p is one of the defined parts.
func (p Part) Valid() bool {
	switch p {
	case Part1, Part3:
		return true
	default:
		return false
	}
}

// ParsePart accepts "Part 1", "part1", "1" and the like.
func ParsePart(s string) (Part, error) {
	switch s {
	case "Part 1", "part 1", "part1", "1":
		return Part1, nil
	case "Part 3", "part 3", "part3", "3":
		return Part3, nil
	default:
		return "", fmt.Errorf("unknown part %q: must be 1 or 3", s)
	}
}

// Question is a single speaking prompt. Questions are values and never mutated.
type Question struct {
	Part Part   `json:"part"`
	Text string `json:"question"`
}
