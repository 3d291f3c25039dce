// Package config provides configuration structures and utilities for
// unitedatom. It defines the scan parameters, the residue table, input and
// output locations, and report preferences, and loads them from YAML files
// and UNITEDATOM_* environment variables.
package config
