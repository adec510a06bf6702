// Package config provides the configuration for retile: storefront
// endpoint and account, pipeline concurrency and retry bounds, export
// format selection, and report output preferences.
package config
