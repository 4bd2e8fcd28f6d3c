// Package pathutils resolves file path arguments given on the command line.
package pathutils
