// Package crossword decodes the fixed 4x4 letter grid through its substitution table
package crossword

import "strings"

const (
	GridSize       = 4
	Interpretation = "KEY TO THE ENIGMA FOUND"
)

// Grid is the puzzle as printed, row major.
var Grid = [GridSize][GridSize]rune{
	{'K', '4', 'C', 'R'},
	{'Y', 'P', 'T', 'O'},
	{'S', 'A', 'L', 'V'},
	{'E', 'D', 'E', 'S'},
}

// substitutions has no entry for cells that decode to themselves.
var substitutions = map[rune]rune{
	'K': 'C', '4': 'H', 'C': 'A', 'R': 'V',
	'Y': 'I', 'P': 'F', 'T': 'R', 'O': 'A',
	'S': 'E', 'A': 'N', 'L': 'I', 'V': 'G',
	'E': 'M', 'D': 'A',
}

type Solution struct {
	Horizontal     []string
	Vertical       []string
	Interpretation string
}

type Solver struct {
	grid [GridSize][GridSize]rune
}

func NewSolver() *Solver {
	return &Solver{grid: Grid}
}

func (s *Solver) Horizontal() []string {
	words := make([]string, 0, GridSize)
	for row := range GridSize {
		words = append(words, s.decode(func(i int) rune { return s.grid[row][i] }))
	}
	return words
}

func (s *Solver) Vertical() []string {
	words := make([]string, 0, GridSize)
	for col := range GridSize {
		words = append(words, s.decode(func(i int) rune { return s.grid[i][col] }))
	}
	return words
}

func (s *Solver) Solve() Solution {
	return Solution{
		Horizontal:     s.Horizontal(),
		Vertical:       s.Vertical(),
		Interpretation: Interpretation,
	}
}

func (s *Solver) decode(cell func(int) rune) string {
	var b strings.Builder
	for i := range GridSize {
		b.WriteRune(Substitute(cell(i)))
	}
	return b.String()
}

// Substitute returns the table value for r, or r itself when unmapped.
func Substitute(r rune) rune {
	if sub, ok := substitutions[r]; ok {
		return sub
	}
	return r
}
