package wl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	in := "LineID;LineText;SortingHelp;Realtime;MeansOfTransport\n" +
		"301;U1;100;1;ptMetro\n" +
		"\"2\";\"2\";200;1;ptTram\n"

	lines, err := ReadLines(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, Line{ID: 301, Name: "U1", Type: "ptMetro"}, lines[0])
	assert.Equal(t, Line{ID: 2, Name: "2", Type: "ptTram"}, lines[1])
}

func TestReadStopsOptionalFields(t *testing.T) {
	in := "StopID;DIVA;StopText;Municipality;MunicipalityID;Lat;Lon\n" +
		"4101;60201234;Karlsplatz;Wien;90001;48.2003;16.3695\n" +
		"4102;;Unbekannt;Wien;90001;;\n"

	stops, err := ReadStops(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, stops, 2)

	require.NotNil(t, stops[0].Diva)
	assert.Equal(t, 60201234, *stops[0].Diva)
	require.NotNil(t, stops[0].Lat)
	assert.InDelta(t, 48.2003, *stops[0].Lat, 1e-9)

	assert.Nil(t, stops[1].Diva)
	assert.Nil(t, stops[1].Lat)
	assert.Nil(t, stops[1].Lon)
	assert.Equal(t, "Unbekannt", stops[1].Name)
}

func TestReadConnections(t *testing.T) {
	in := "LineID;PatternID;StopSeqCount;StopID;Direction\n" +
		"301;1;0;4101;1\n" +
		"301;2;3;4102;2\n"

	conns, err := ReadConnections(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Connection{
		{LineID: 301, Sequence: 0, StopID: 4101, Direction: 1},
		{LineID: 301, Sequence: 3, StopID: 4102, Direction: 2},
	}, conns)
}

func TestReadConnectionsMalformed(t *testing.T) {
	in := "LineID;PatternID;StopSeqCount;StopID;Direction\n" +
		"301;1;zero;4101;1\n"

	_, err := ReadConnections(strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRow))
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadLEDIndex(t *testing.T) {
	in := "Ref;Name;Scheme;Index\n" +
		"60201234;Karlsplatz;strip;12\n" +
		"60201234;Karlsplatz;simple;0\n"

	rows, err := ReadLEDIndex(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, LEDIndexRow{Ref: 60201234, Name: "Karlsplatz", Scheme: "strip", Index: 12}, rows[0])

	_, err = ReadLEDIndex(strings.NewReader("h\n1;x;;3\n"))
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestReadEmptyTable(t *testing.T) {
	lines, err := ReadLines(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFilterLines(t *testing.T) {
	lines := []Line{
		{ID: 301, Name: "U1", Type: "ptMetro"},
		{ID: 302, Name: "U2", Type: "ptMetro"},
		{ID: 1, Name: "1", Type: "ptTram"},
	}

	assert.Len(t, FilterLines(lines, "ptMetro", ""), 2)
	assert.Equal(t, []Line{{ID: 302, Name: "U2", Type: "ptMetro"}}, FilterLines(lines, "ptMetro", "U2"))
	assert.Empty(t, FilterLines(lines, "ptBus", ""))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		return p
	}

	paths := Paths{
		Lines:       write("lines.csv", "h\n301;U1;1;1;ptMetro\n"),
		Stops:       write("stops.csv", "h\n1;10;A;Wien;9;48.1;16.1\n"),
		Connections: write("conns.csv", "h\n301;1;0;1;1\n"),
	}

	data, err := Load(paths, nil)
	require.NoError(t, err)
	assert.Len(t, data.Lines, 1)
	assert.Len(t, data.Stops, 1)
	assert.Len(t, data.Connections, 1)
	assert.Empty(t, data.LEDIndex)

	paths.LEDIndex = filepath.Join(dir, "missing.csv")
	_, err = Load(paths, nil)
	assert.Error(t, err)
}
