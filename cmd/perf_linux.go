//go:build linux

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
	"log/slog"

	"github.com/hodgesds/perf-utils"
)

// countInstructions runs f under a hardware instruction counter. Systems
// that refuse perf events still run f, without a count.
func countInstructions(f func() error) (instructions uint64, err error) {
	var (
		ran bool
	)
	pv, perfErr := perf.CPUInstructions(func() error {
		ran = true
		err = f()
		return err
	})
	if ran {
		if pv != nil {
			instructions = pv.Value
		}
		return
	}
	slog.Warn("hardware counters unavailable", "error", perfErr)
	err = f()
	return
}
