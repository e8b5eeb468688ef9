package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrMalformed is returned when the CSV cannot be turned into observations.
var ErrMalformed = errors.New("malformed dataset")

// Load reads the dataset CSV at path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse reads a CSV with a header row. Columns are located by name, so
// their order in the file does not matter and extra columns are ignored.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var columns []string
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if IsNumericColumn(name) && index[name] == i {
			columns = append(columns, name)
		}
	}
	for _, required := range append(slices.Clone(numericColumns), ColRiskLevel) {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, required)
		}
	}

	var rows []Observation
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}

		obs, err := parseRow(rec, index)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		rows = append(rows, obs)
	}

	return newDataset(rows, columns), nil
}

func parseRow(rec []string, index map[string]int) (Observation, error) {
	var (
		obs Observation
		err error
	)
	if obs.Age, err = intField(rec, index, ColAge); err != nil {
		return obs, err
	}
	if obs.SystolicBP, err = intField(rec, index, ColSystolicBP); err != nil {
		return obs, err
	}
	if obs.DiastolicBP, err = intField(rec, index, ColDiastolicBP); err != nil {
		return obs, err
	}
	if obs.HeartRate, err = intField(rec, index, ColHeartRate); err != nil {
		return obs, err
	}
	if obs.BloodSugar, err = floatField(rec, index, ColBS); err != nil {
		return obs, err
	}
	if obs.BodyTemp, err = floatField(rec, index, ColBodyTemp); err != nil {
		return obs, err
	}

	obs.RiskLevel = strings.TrimSpace(rec[index[ColRiskLevel]])
	if obs.RiskLevel == "" {
		return obs, fmt.Errorf("empty %s", ColRiskLevel)
	}
	return obs, nil
}

func floatField(rec []string, index map[string]int, col string) (float64, error) {
	raw := strings.TrimSpace(rec[index[col]])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid number %q", col, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("column %s: non-finite value %q", col, raw)
	}
	return v, nil
}

// intField accepts "25" and "25.0" but rejects "25.5".
func intField(rec []string, index map[string]int, col string) (int, error) {
	v, err := floatField(rec, index, col)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("column %s: expected integer, got %v", col, v)
	}
	return int(v), nil
}

func fingerprint(rows []Observation) uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 96)
	for _, r := range rows {
		buf = buf[:0]
		buf = strconv.AppendInt(buf, int64(r.Age), 10)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, r.BloodSugar, 'g', -1, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, r.BodyTemp, 'g', -1, 64)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, int64(r.DiastolicBP), 10)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, int64(r.HeartRate), 10)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, int64(r.SystolicBP), 10)
		buf = append(buf, ',')
		buf = append(buf, r.RiskLevel...)
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return h.Sum64()
}
