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
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/gomeshless/model_problems/Slab1D"
	"github.com/notargets/gomeshless/spatial"
)

// ConvergenceCmd represents the convergence command
var ConvergenceCmd = &cobra.Command{
	Use:   "convergence",
	Short: "Observed order of accuracy on the two material slab",
	Long: `
Refines the slab problem over a list of point counts and prints the error and
the observed order of accuracy, or reports studies saved in a CSV file,

gomeshless convergence -p 11,21,41,81 -o study.csv
gomeshless convergence --csvFile study.csv`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		csvFile, _ := cmd.Flags().GetString("csvFile")
		if csvFile != "" {
			return ReportCSV(csvFile)
		}
		points, _ := cmd.Flags().GetIntSlice("points")
		weighting, _ := cmd.Flags().GetString("weighting")
		ordinates, _ := cmd.Flags().GetInt("n")
		output, _ := cmd.Flags().GetString("output")
		return RunConvergence(cmd.Context(), weighting, ordinates, points, output)
	},
}

func init() {
	rootCmd.AddCommand(ConvergenceCmd)
	ConvergenceCmd.Flags().IntSliceP("points", "p", []int{11, 21, 41, 81}, "point counts to solve")
	ConvergenceCmd.Flags().StringP("weighting", "w", "WEIGHT", "cross section weighting")
	ConvergenceCmd.Flags().IntP("n", "n", 4, "Number of ordinates")
	ConvergenceCmd.Flags().StringP("output", "o", "", "save the study to this CSV file")
	ConvergenceCmd.Flags().String("csvFile", "", "file containing entries of a convergence study")
}

func RunConvergence(ctx context.Context, weighting string, ordinates int, points []int, output string) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := Slab1D.NewSlab1D(0)
	s.Ordinates = ordinates
	if s.Spatial.Weighting, err = spatial.ParseWeighting(weighting); err != nil {
		return
	}
	cs := Slab1D.NewConvergenceStudy("slab", s.Spatial.Weighting.String())
	if err = cs.Run(ctx, s, points); err != nil {
		return
	}
	printStudy(cs)
	if output == "" {
		return
	}
	f, err := os.Create(output)
	if err != nil {
		return
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return cs.WriteCSV(f)
}

func ReportCSV(csvFile string) (err error) {
	fmt.Printf("Input file: %v\n", csvFile)
	f, err := os.Open(csvFile)
	if err != nil {
		return
	}
	defer f.Close()
	studies, err := Slab1D.ReadCSV(f)
	if err != nil {
		return
	}
	for _, cs := range studies {
		printStudy(cs)
	}
	return
}

func printStudy(cs *Slab1D.ConvergenceStudy) {
	fmt.Printf("Title = %s, Weighting = %s\n", cs.Title, cs.Weighting)
	orders := cs.Orders()
	for i := range cs.NumPTS {
		if i == 0 {
			fmt.Printf("%d, %v\n", cs.NumPTS[i], cs.MaxErr[i])
			continue
		}
		fmt.Printf("%d, %v, %5.2f\n", cs.NumPTS[i], cs.MaxErr[i], orders[i-1])
	}
}
