package components

// Chart is a fixed-window plot fed one sample at a time.
type Chart interface {
	Push(value float64)
	Resize(width, height int)
	Plot() string
}
