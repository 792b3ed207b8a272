package Slab1D

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ConvergenceStudy records the slab error as the point count grows
type ConvergenceStudy struct {
	Title     string
	Weighting string
	NumPTS    []int
	MaxErr    []float64
}

func NewConvergenceStudy(title, weighting string) *ConvergenceStudy {
	return &ConvergenceStudy{
		Title:     title,
		Weighting: weighting,
	}
}

func (cs *ConvergenceStudy) Add(numPTS int, maxErr float64) {
	cs.NumPTS = append(cs.NumPTS, numPTS)
	cs.MaxErr = append(cs.MaxErr, maxErr)
}

// Orders are the observed orders of accuracy between successive entries.
// The point spacing goes as 1/(N-1).
func (cs *ConvergenceStudy) Orders() (orders []float64) {
	for i := 1; i < len(cs.NumPTS); i++ {
		h0, h1 := 1/float64(cs.NumPTS[i-1]-1), 1/float64(cs.NumPTS[i]-1)
		orders = append(orders, math.Log(cs.MaxErr[i-1]/cs.MaxErr[i])/math.Log(h0/h1))
	}
	return
}

// Run solves the slab at each point count, keeping the other settings of s
func (cs *ConvergenceStudy) Run(ctx context.Context, s *Slab1D, points []int) (err error) {
	for _, n := range points {
		s.Points = n
		var x, phi []float64
		if x, phi, _, err = s.Run(ctx); err != nil {
			return fmt.Errorf("%d points: %w", n, err)
		}
		cs.Add(n, s.MaxRelativeError(x, phi))
	}
	return
}

var csvHeader = []string{"title", "weighting", "points", "max_error"}

func (cs *ConvergenceStudy) WriteCSV(w io.Writer) (err error) {
	cw := csv.NewWriter(w)
	if err = cw.Write(csvHeader); err != nil {
		return
	}
	for i := range cs.NumPTS {
		rec := []string{cs.Title, cs.Weighting, strconv.Itoa(cs.NumPTS[i]),
			strconv.FormatFloat(cs.MaxErr[i], 'e', -1, 64)}
		if err = cw.Write(rec); err != nil {
			return
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV groups the records of a study file by title and weighting
func ReadCSV(r io.Reader) (studies map[string]*ConvergenceStudy, err error) {
	var (
		records [][]string
		ok      bool
		cs      *ConvergenceStudy
	)
	studies = make(map[string]*ConvergenceStudy)
	if records, err = csv.NewReader(r).ReadAll(); err != nil {
		return
	}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("line %d: %d fields, want %d", i+1, len(rec), len(csvHeader))
		}
		title, weighting := rec[0], rec[1]
		var (
			npts   int
			maxErr float64
		)
		if npts, err = strconv.Atoi(rec[2]); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if maxErr, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		combTitle := title + weighting
		if cs, ok = studies[combTitle]; !ok {
			cs = NewConvergenceStudy(title, weighting)
			studies[combTitle] = cs
		}
		cs.Add(npts, maxErr)
	}
	return
}
