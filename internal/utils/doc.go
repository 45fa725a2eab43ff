// Package utils exposes reusable helpers consumed across the command line
// surface: a Viper-backed ConfigurationLoader, a zap LoggerFactory, and a
// FlushingWriter that keeps streamed script output visible immediately.
package utils
