package wl

// Data holds the parsed reference tables
type Data struct {
	Lines       []Line
	Stops       []Stop
	Connections []Connection
	LEDIndex    []LEDIndexRow
}

// Line is a row of the line table
type Line struct {
	ID   int
	Name string
	Type string
}

// Stop is a row of the stop table. Diva, Lat and Lon are nil when the
// source cell is empty.
type Stop struct {
	ID   int
	Diva *int
	Name string
	City string
	Lat  *float64
	Lon  *float64
}

// Connection ties a stop to a position in a line's direction pattern
type Connection struct {
	LineID    int
	Sequence  int
	StopID    int
	Direction int
}

// LEDIndexRow assigns an index under one scheme to every stop with the
// given external reference code
type LEDIndexRow struct {
	Ref    int
	Name   string
	Scheme string
	Index  int
}
