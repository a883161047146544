// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package steps

// Definition is the YAML document accepted by cwdrun.
type Definition struct {
	// Name is an optional label for the whole run.
	Name string `yaml:"name"`
	// Steps are executed serially, each inside its own working directory
	// scope.
	Steps []Step `yaml:"steps"`
}

// Step is a single command executed in a temporarily changed working
// directory. The directory in effect before the step is restored when the
// step ends, whether it succeeded or not.
type Step struct {
	// Name is an optional label for the step.
	Name string `yaml:"name"`
	// Dir is the directory to change to before running. Empty means run in
	// the current directory.
	Dir string `yaml:"dir"`
	// Run is the command line, executed via the system shell.
	Run string `yaml:"run"`
	// Env are additional environment variables for the command.
	Env map[string]string `yaml:"env"`
}

// Label returns the step name, or the command line when unnamed.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}

	return s.Run
}
