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

	"github.com/spf13/cobra"

	"github.com/notargets/gomeshless/model_problems/Slab1D"
	"github.com/notargets/gomeshless/solver"
	"github.com/notargets/gomeshless/spatial"
)

type ModelSlab struct {
	Points, Ordinates int
	Interface         float64
	SigmaT            [2]float64
	Weighting         string
	Iteration         string
	SUPG              bool
}

// SlabCmd represents the slab command
var SlabCmd = &cobra.Command{
	Use:   "slab",
	Short: "Two material slab with a closed form discrete ordinates solution",
	Long: `
Solves the two region absorbing slab on [-1,1] and reports the error against
the exact discrete ordinates scalar flux,

gomeshless slab -k 41 -n 8`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ms := &ModelSlab{}
		ms.Points, _ = cmd.Flags().GetInt("k")
		ms.Ordinates, _ = cmd.Flags().GetInt("n")
		ms.Interface, _ = cmd.Flags().GetFloat64("interface")
		ms.SigmaT[0], _ = cmd.Flags().GetFloat64("sigmaLeft")
		ms.SigmaT[1], _ = cmd.Flags().GetFloat64("sigmaRight")
		ms.Weighting, _ = cmd.Flags().GetString("weighting")
		ms.Iteration, _ = cmd.Flags().GetString("iteration")
		ms.SUPG, _ = cmd.Flags().GetBool("supg")
		return RunSlab(cmd.Context(), ms)
	},
}

func init() {
	rootCmd.AddCommand(SlabCmd)
	SlabCmd.Flags().IntP("k", "k", 41, "Number of points")
	SlabCmd.Flags().IntP("n", "n", 4, "Number of ordinates")
	SlabCmd.Flags().Float64("interface", 0, "position of the material interface")
	SlabCmd.Flags().Float64("sigmaLeft", 1, "total cross section left of the interface")
	SlabCmd.Flags().Float64("sigmaRight", 2, "total cross section right of the interface")
	SlabCmd.Flags().StringP("weighting", "w", "WEIGHT", "cross section weighting: POINT, WEIGHT, BASIS or FULL")
	SlabCmd.Flags().String("iteration", "SOURCE_ITERATION", "SOURCE_ITERATION or KRYLOV")
	SlabCmd.Flags().Bool("supg", false, "add streamline upwind Petrov-Galerkin stabilization")
}

func RunSlab(ctx context.Context, ms *ModelSlab) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := Slab1D.NewSlab1D(ms.Points)
	s.Ordinates = ms.Ordinates
	s.Interface = ms.Interface
	s.SigmaT = ms.SigmaT
	if s.Spatial.Weighting, err = spatial.ParseWeighting(ms.Weighting); err != nil {
		return
	}
	s.Spatial.IncludeSUPG = ms.SUPG
	if s.Solver.Method, err = solver.ParseMethod(ms.Iteration); err != nil {
		return
	}
	s.Sweep.RunID = runID
	x, phi, r, err := s.Run(ctx)
	if err != nil {
		return
	}
	for i := range x {
		fmt.Printf("%8.5f\t%12.8f\t%12.8f\n", x[i], phi[i], s.ScalarFlux(x[i]))
	}
	fmt.Printf("%d\t\t\t\t= Iterations\n", r.Iterations)
	fmt.Printf("%8.5e\t\t\t= Max Relative Error\n", s.MaxRelativeError(x, phi))
	return
}
