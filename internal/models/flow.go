package models

// Flow represents a directed data flow between two extracted components
type Flow struct {
	Src string `json:"src" yaml:"src"`
	Dst string `json:"dst" yaml:"dst"`
}

// String returns a human-readable representation
func (f Flow) String() string {
	return f.Src + " -> " + f.Dst
}
