// Package wl reads the semicolon-delimited reference tables published by
// Wiener Linien (lines, stops, connections) and the LED index table.
package wl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrMalformedRow is returned when a required cell cannot be parsed
var ErrMalformedRow = errors.New("malformed row")

// Paths names the table files to load. LEDIndex is optional.
type Paths struct {
	Lines       string
	Stops       string
	Connections string
	LEDIndex    string
}

// Load reads every configured table from disk
func Load(p Paths, log *zap.SugaredLogger) (*Data, error) {
	data := &Data{}
	var err error

	if data.Lines, err = readFile(p.Lines, ReadLines); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	if data.Stops, err = readFile(p.Stops, ReadStops); err != nil {
		return nil, fmt.Errorf("failed to read stops: %w", err)
	}
	if data.Connections, err = readFile(p.Connections, ReadConnections); err != nil {
		return nil, fmt.Errorf("failed to read connections: %w", err)
	}
	if p.LEDIndex != "" {
		if data.LEDIndex, err = readFile(p.LEDIndex, ReadLEDIndex); err != nil {
			return nil, fmt.Errorf("failed to read led index: %w", err)
		}
	}

	if log != nil {
		log.Infow("reference tables loaded",
			"lines", len(data.Lines),
			"stops", len(data.Stops),
			"connections", len(data.Connections),
			"ledIndexRows", len(data.LEDIndex))
	}
	return data, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return read(f)
}

// ReadLines parses the line table: id;name;...;...;type
func ReadLines(r io.Reader) ([]Line, error) {
	var lines []Line
	err := eachRow(r, func(n int, row []string) error {
		id, err := requireInt(row, 0)
		if err != nil {
			return rowError(n, err)
		}
		lines = append(lines, Line{
			ID:   id,
			Name: field(row, 1),
			Type: field(row, 4),
		})
		return nil
	})
	return lines, err
}

// ReadStops parses the stop table: id;diva;name;city;...;lat;lon
func ReadStops(r io.Reader) ([]Stop, error) {
	var stops []Stop
	err := eachRow(r, func(n int, row []string) error {
		id, err := requireInt(row, 0)
		if err != nil {
			return rowError(n, err)
		}
		s := Stop{ID: id, Name: field(row, 2), City: field(row, 3)}
		if s.Diva, err = optionalInt(row, 1); err != nil {
			return rowError(n, err)
		}
		if s.Lat, err = optionalFloat(row, 5); err != nil {
			return rowError(n, err)
		}
		if s.Lon, err = optionalFloat(row, 6); err != nil {
			return rowError(n, err)
		}
		stops = append(stops, s)
		return nil
	})
	return stops, err
}

// ReadConnections parses the connection table: line;pattern;sequence;stop;direction
func ReadConnections(r io.Reader) ([]Connection, error) {
	var conns []Connection
	err := eachRow(r, func(n int, row []string) error {
		var c Connection
		var err error
		if c.LineID, err = requireInt(row, 0); err != nil {
			return rowError(n, err)
		}
		if c.Sequence, err = requireInt(row, 2); err != nil {
			return rowError(n, err)
		}
		if c.StopID, err = requireInt(row, 3); err != nil {
			return rowError(n, err)
		}
		if c.Direction, err = requireInt(row, 4); err != nil {
			return rowError(n, err)
		}
		conns = append(conns, c)
		return nil
	})
	return conns, err
}

// ReadLEDIndex parses the LED index table: ref;name;scheme;index
func ReadLEDIndex(r io.Reader) ([]LEDIndexRow, error) {
	var rows []LEDIndexRow
	err := eachRow(r, func(n int, row []string) error {
		ref, err := requireInt(row, 0)
		if err != nil {
			return rowError(n, err)
		}
		scheme := field(row, 2)
		if scheme == "" {
			return rowError(n, fmt.Errorf("%w: empty scheme", ErrMalformedRow))
		}
		index, err := requireInt(row, 3)
		if err != nil {
			return rowError(n, err)
		}
		rows = append(rows, LEDIndexRow{Ref: ref, Name: field(row, 1), Scheme: scheme, Index: index})
		return nil
	})
	return rows, err
}

// FilterLines keeps the lines of the given type and, when name is not
// empty, only the line with that name.
func FilterLines(lines []Line, lineType, name string) []Line {
	var filtered []Line
	for _, l := range lines {
		if l.Type != lineType {
			continue
		}
		if name != "" && l.Name != name {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered
}

// eachRow discards the header row and calls fn for every following record.
// n is the 1-based line number of the record in the file.
func eachRow(r io.Reader, fn func(n int, row []string) error) error {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	n := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		n++
		if err != nil {
			return err
		}
		if err := fn(n, record); err != nil {
			return err
		}
	}
}

func field(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func requireInt(row []string, i int) (int, error) {
	v := field(row, i)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: column %d: %q is not an integer", ErrMalformedRow, i, v)
	}
	return n, nil
}

func optionalInt(row []string, i int) (*int, error) {
	if field(row, i) == "" {
		return nil, nil
	}
	n, err := requireInt(row, i)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optionalFloat(row []string, i int) (*float64, error) {
	v := field(row, i)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: column %d: %q is not a number", ErrMalformedRow, i, v)
	}
	return &f, nil
}

func rowError(n int, err error) error {
	return fmt.Errorf("line %d: %w", n, err)
}
