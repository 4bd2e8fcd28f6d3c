// Package utils exposes the configuration and logging helpers shared by the
// stati commands.
//
// ConfigurationLoader layers embedded defaults, an optional configuration file
// and STATI_* environment variables through Viper. LoggerFactory builds zap
// loggers that write to standard error so they never interleave with the
// progress redraws on standard output.
package utils
