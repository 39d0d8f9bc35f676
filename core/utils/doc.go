// Package utils provides common utility functions for the DataSync application.
// It includes helper functions for loose type conversion of database values
// and other shared logic that doesn't fit into domain-specific packages.
package utils
