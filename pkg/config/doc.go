// Package config gathers the settings of the exporter from defaults, an
// optional YAML file and the environment.
//
package config
