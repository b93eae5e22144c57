// Package dataset loads labelled correlation datasets from a directory tree:
//
//	time_series/           one comma-separated multivariate series per file
//	label/                 one 0/1 event indicator value per line
//	interpretation_label/  START-END:d1,d2,... per labelled event (optional)
//	correlation_type/      t1,t2,... per labelled event (optional)
//
// Files are matched across folders by their sorted position.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/soltixdb/cets/internal/analytics"
)

const (
	DirTimeSeries          = "time_series"
	DirLabel               = "label"
	DirInterpretationLabel = "interpretation_label"
	DirCorrelationType     = "correlation_type"

	fileSuffix = ".txt"
)

// GroupLabel is the ground truth of one event group: the 1-based dimensions
// involved and their correlation types, aligned by position.
type GroupLabel struct {
	Dims  []int `json:"dims" yaml:"dims"`
	Types []int `json:"types" yaml:"types"`
}

// TypeOf returns the ground-truth type of a 1-based dimension
func (g GroupLabel) TypeOf(dim int) (int, bool) {
	for i, d := range g.Dims {
		if d == dim {
			if i < len(g.Types) {
				return g.Types[i], true
			}
			return -1, true
		}
	}
	return 0, false
}

// Dataset is a loaded set of samples with their grouped events.
type Dataset struct {
	Names  []string
	Series []analytics.Series
	Events [][]analytics.EventSequence
	Labels [][]GroupLabel
}

// Labelled reports whether ground truth is available for scoring
func (d *Dataset) Labelled() bool {
	return d.Labels != nil
}

// Loader reads datasets from a filesystem.
type Loader struct {
	fs   afero.Fs
	root string
}

// NewLoader creates a loader rooted at dir
func NewLoader(fs afero.Fs, dir string) *Loader {
	return &Loader{fs: fs, root: dir}
}

// NewOSLoader creates a loader on the operating system filesystem
func NewOSLoader(dir string) *Loader {
	return NewLoader(afero.NewOsFs(), dir)
}

// Load reads every folder and groups events by interpretation label
func (l *Loader) Load() (*Dataset, error) {
	names, series, err := l.LoadSeries()
	if err != nil {
		return nil, err
	}

	indicators, err := l.readFolder(DirLabel, parseIndicator)
	if err != nil {
		return nil, err
	}
	if len(indicators) != len(series) {
		return nil, fmt.Errorf("%d label files for %d time series", len(indicators), len(series))
	}

	ds := &Dataset{Names: names, Series: series, Events: make([][]analytics.EventSequence, len(series))}

	interp, err := l.readFolder(DirInterpretationLabel, parseInterpretation)
	if err != nil {
		return nil, err
	}
	if interp == nil {
		for i, ind := range indicators {
			ds.Events[i] = []analytics.EventSequence{ChangePoints(ind.values)}
		}
		return ds, nil
	}

	types, err := l.readFolder(DirCorrelationType, parseIntLines)
	if err != nil {
		return nil, err
	}
	if len(interp) != len(series) || (types != nil && len(types) != len(series)) {
		return nil, fmt.Errorf("label folders do not match %d time series", len(series))
	}

	ds.Labels = make([][]GroupLabel, len(series))
	for i := range series {
		var typeLines [][]int
		if types != nil {
			typeLines = types[i].lines
		}
		events, labels, err := GroupEvents(ChangePoints(indicators[i].values), interp[i].lines, typeLines)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
		ds.Events[i] = events
		ds.Labels[i] = labels
	}
	return ds, nil
}

// LoadSeries reads only the time_series folder
func (l *Loader) LoadSeries() ([]string, []analytics.Series, error) {
	files, err := l.readFolder(DirTimeSeries, parseSeries)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no %s files in %s", fileSuffix, path.Join(l.root, DirTimeSeries))
	}

	names := make([]string, len(files))
	series := make([]analytics.Series, len(files))
	for i, f := range files {
		names[i] = f.name
		series[i] = f.series
	}
	return names, series, nil
}

// ChangePoints returns every index i with values[i] == 0 and values[i+1] == 1
func ChangePoints(values []float64) analytics.EventSequence {
	events := analytics.EventSequence{}
	for i := 0; i+1 < len(values); i++ {
		if values[i] == 0 && values[i+1] == 1 {
			events = append(events, i)
		}
	}
	return events
}

// GroupEvents pairs the i-th event with the i-th interpretation line and
// merges events with identical dimension lists, keeping first-seen order
func GroupEvents(events analytics.EventSequence, interp [][]int, types [][]int) ([]analytics.EventSequence, []GroupLabel, error) {
	if len(interp) > len(events) {
		return nil, nil, fmt.Errorf("%d interpretation labels for %d events", len(interp), len(events))
	}

	index := make(map[string]int)
	var groups []analytics.EventSequence
	var labels []GroupLabel
	for i, dims := range interp {
		key := fmt.Sprint(dims)
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, analytics.EventSequence{})
			labels = append(labels, GroupLabel{Dims: dims})
		}
		groups[g] = append(groups[g], events[i])
		if i < len(types) {
			labels[g].Types = types[i]
		}
	}
	return groups, labels, nil
}

type parsedFile struct {
	name   string
	series analytics.Series
	values []float64
	lines  [][]int
}

type parseFunc func(name string, r io.Reader) (parsedFile, error)

// readFolder parses every .txt file of a folder in name order. A missing
// folder returns nil without error.
func (l *Loader) readFolder(folder string, parse parseFunc) ([]parsedFile, error) {
	dir := path.Join(l.root, folder)
	exists, err := afero.DirExists(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !exists {
		return nil, nil
	}

	infos, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, info := range infos {
		if !info.IsDir() && strings.HasSuffix(info.Name(), fileSuffix) {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)

	files := make([]parsedFile, 0, len(names))
	for _, name := range names {
		f, err := l.fs.Open(path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		parsed, err := parse(name, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", folder, name, err)
		}
		files = append(files, parsed)
	}
	return files, nil
}

func parseSeries(name string, r io.Reader) (parsedFile, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var series analytics.Series
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return parsedFile{}, err
		}
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return parsedFile{}, fmt.Errorf("row %d column %d: %w", len(series)+1, i+1, err)
			}
			row[i] = v
		}
		series = append(series, row)
	}
	if err := series.Validate(); err != nil {
		return parsedFile{}, err
	}
	return parsedFile{name: name, series: series}, nil
}

func parseIndicator(name string, r io.Reader) (parsedFile, error) {
	var values []float64
	err := scanLines(r, func(n int, line string) error {
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		values = append(values, v)
		return nil
	})
	return parsedFile{name: name, values: values}, err
}

// parseInterpretation keeps the dimension list after the colon
func parseInterpretation(name string, r io.Reader) (parsedFile, error) {
	var lines [][]int
	err := scanLines(r, func(n int, line string) error {
		if i := strings.IndexByte(line, ':'); i >= 0 {
			line = line[i+1:]
		}
		dims, err := parseInts(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, dims)
		return nil
	})
	return parsedFile{name: name, lines: lines}, err
}

func parseIntLines(name string, r io.Reader) (parsedFile, error) {
	var lines [][]int
	err := scanLines(r, func(n int, line string) error {
		values, err := parseInts(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, values)
		return nil
	})
	return parsedFile{name: name, lines: lines}, err
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// scanLines calls fn for every non-blank line with its 1-based number
func scanLines(r io.Reader, fn func(n int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
