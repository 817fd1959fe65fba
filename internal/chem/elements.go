package chem

// element describes the properties the parser and perception code need.
type element struct {
	Symbol    string
	AtomicNum int
	// Valences lists allowed neutral valences in ascending order. Empty means
	// no implicit hydrogens are ever added.
	Valences []int
}

var elements = []element{
	{"*", 0, nil},
	{"H", 1, []int{1}},
	{"He", 2, nil},
	{"Li", 3, []int{1}},
	{"Be", 4, []int{2}},
	{"B", 5, []int{3}},
	{"C", 6, []int{4}},
	{"N", 7, []int{3, 5}},
	{"O", 8, []int{2}},
	{"F", 9, []int{1}},
	{"Ne", 10, nil},
	{"Na", 11, []int{1}},
	{"Mg", 12, []int{2}},
	{"Al", 13, []int{3}},
	{"Si", 14, []int{4}},
	{"P", 15, []int{3, 5}},
	{"S", 16, []int{2, 4, 6}},
	{"Cl", 17, []int{1}},
	{"Ar", 18, nil},
	{"K", 19, []int{1}},
	{"Ca", 20, []int{2}},
	{"Fe", 26, nil},
	{"Co", 27, nil},
	{"Ni", 28, nil},
	{"Cu", 29, nil},
	{"Zn", 30, nil},
	{"Ga", 31, []int{3}},
	{"Ge", 32, []int{4}},
	{"As", 33, []int{3, 5}},
	{"Se", 34, []int{2, 4, 6}},
	{"Br", 35, []int{1}},
	{"Kr", 36, nil},
	{"Rb", 37, []int{1}},
	{"Sr", 38, []int{2}},
	{"Ag", 47, nil},
	{"Sn", 50, []int{2, 4}},
	{"Sb", 51, []int{3, 5}},
	{"Te", 52, []int{2, 4, 6}},
	{"I", 53, []int{1, 3, 5}},
	{"Xe", 54, nil},
	{"Cs", 55, []int{1}},
	{"Ba", 56, []int{2}},
	{"Pt", 78, nil},
	{"Au", 79, nil},
	{"Hg", 80, nil},
	{"Pb", 82, []int{2, 4}},
	{"Bi", 83, []int{3, 5}},
}

var (
	elementBySymbol = make(map[string]*element, len(elements))
	elementByNum    = make(map[int]*element, len(elements))
)

func init() {
	for i := range elements {
		e := &elements[i]
		elementBySymbol[e.Symbol] = e
		elementByNum[e.AtomicNum] = e
	}
}

// organicSubset are the symbols allowed outside brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true, "*": true,
}

// aromaticSymbols maps lowercase aromatic symbols to their element symbol.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
	"se": "Se", "as": "As", "te": "Te",
}

// AtomicNumber returns the atomic number for symbol and whether it is known.
func AtomicNumber(symbol string) (int, bool) {
	e, ok := elementBySymbol[symbol]
	if !ok {
		return 0, false
	}
	return e.AtomicNum, true
}

// SymbolOf returns the element symbol for an atomic number, or "*" when unknown.
func SymbolOf(atomicNum int) string {
	if e, ok := elementByNum[atomicNum]; ok {
		return e.Symbol
	}
	return "*"
}

// IsHalogen reports whether atomicNum is F, Cl, Br or I.
func IsHalogen(atomicNum int) bool {
	switch atomicNum {
	case 9, 17, 35, 53:
		return true
	}
	return false
}

//Personal.AI order the ending
