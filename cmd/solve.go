/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/notargets/gomeshless/InputParameters"
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/solver"
	"github.com/notargets/gomeshless/utils"
)

type ModelSolve struct {
	ICFile       string
	MaterialFile string
	MatrixFile   string
	Perf         bool
}

const exampleFile = `
########################################
Title: "Reflected scatterer"
Limits: [[0, 1]]
Points: [21]
MaterialLibrary: materials.toml
DefaultMaterial: scatterer
Ordinates: 8
Boundaries:
  xmin:
    Alpha: 1
  xmax:
    Incoming: [1.0]
Spatial:
  Weighting: WEIGHT # POINT, FLUX, BASIS or FULL
  SUPG: false
Solver:
  LinearSolver: DIRECT # or GMRES, ILUT
  Iteration: KRYLOV # or SOURCE_ITERATION
  Eigenvalue: false
########################################
`

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a fixed source or k-eigenvalue problem described in a YAML file",
	Long: `
Discretizes the problem in the input file with the materials of a TOML cross
section library, then iterates to the steady state or fundamental mode,

gomeshless solve -I problem.yaml [-M materials.toml]`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ms := &ModelSolve{}
		if ms.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			return
		}
		ms.MaterialFile, _ = cmd.Flags().GetString("materialFile")
		ms.MatrixFile, _ = cmd.Flags().GetString("matrixFile")
		ms.Perf, _ = cmd.Flags().GetBool("perf")
		ip, lib, err := processSolveInput(ms)
		if err != nil {
			return
		}
		ip.Print()
		return RunSolve(cmd.Context(), ms, ip, lib)
	},
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing geometry, boundaries and solver settings")
	SolveCmd.Flags().StringP("materialFile", "M", "", "TOML cross section library, overrides MaterialLibrary in the input file")
	SolveCmd.Flags().StringP("matrixFile", "X", "", "write the assembled sweep matrices to this XML file")
	SolveCmd.Flags().Bool("perf", false, "count CPU instructions spent in the solve")
}

func processSolveInput(ms *ModelSolve) (ip *InputParameters.InputParameters, lib *material.Library, err error) {
	if len(ms.ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile), for example:%s", exampleFile)
		return
	}
	var data []byte
	if data, err = os.ReadFile(ms.ICFile); err != nil {
		return
	}
	ip = &InputParameters.InputParameters{}
	if err = ip.Parse(data); err != nil {
		err = fmt.Errorf("%s: %w", ms.ICFile, err)
		return
	}
	libFile := ms.MaterialFile
	if libFile == "" {
		if ip.MaterialLibrary == "" {
			err = fmt.Errorf("no material library, set MaterialLibrary in %s or use -M", ms.ICFile)
			return
		}
		libFile = ip.MaterialLibrary
		if !filepath.IsAbs(libFile) {
			libFile = filepath.Join(filepath.Dir(ms.ICFile), libFile)
		}
	}
	lib, err = material.LoadLibrary(libFile)
	return
}

func RunSolve(ctx context.Context, ms *ModelSolve, ip *InputParameters.InputParameters, lib *material.Library) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	begin := time.Now()
	p, err := ip.Setup(ctx, lib, runID)
	if err != nil {
		return
	}
	slog.Info("discretized", "points", p.TD.NumberOfPoints(), "ordinates", p.TD.NumberOfOrdinates(),
		"groups", p.TD.NumberOfGroups(), "elapsed", time.Since(begin))
	if ms.MatrixFile != "" {
		if err = dumpMatrices(p, ms.MatrixFile); err != nil {
			return
		}
	}
	var r solver.Result
	solve := func() (err error) {
		r, err = p.Solve(ctx)
		return
	}
	var instructions uint64
	if ms.Perf {
		instructions, err = countInstructions(solve)
	} else {
		err = solve()
	}
	if err != nil {
		return
	}
	slog.Info("solved", "elapsed", time.Since(begin), "memory", utils.GetMemUsage())
	fmt.Printf("%d\t\t\t\t= Iterations\n", r.Iterations)
	fmt.Printf("%8.5e\t\t\t= Final Change\n", r.Change)
	if p.Eigen {
		fmt.Printf("%10.8f\t\t\t= k-eigenvalue\n", r.K)
	}
	if instructions != 0 {
		fmt.Printf("%d\t\t= CPU Instructions\n", instructions)
	}
	if p.Reference != nil {
		var maxErr float64
		if maxErr, err = p.ReferenceError(r.Phi); err != nil {
			return
		}
		fmt.Printf("%8.5e\t\t\t= Max Relative Error\n", maxErr)
	}
	for g := 0; g < p.TD.NumberOfGroups(); g++ {
		phi := p.ScalarFlux(r.Phi, g)
		for i, w := range p.TD.Spatial.Weights {
			fmt.Printf("%v\t%d\t%12.8f\n", w.Position(), g, phi[i])
		}
	}
	return
}

func dumpMatrices(p *InputParameters.Problem, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err = p.Sweep.SaveMatrixAsXML(f); err != nil {
		return
	}
	slog.Info("wrote sweep matrices", "file", path)
	return
}
