package errors

import "fmt"

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapParseError wraps a source or annotation parse failure.
func WrapParseError(item string, loc SourceLocation, cause error) *BaseError {
	return Wrap(SyntaxErrorCode, fmt.Sprintf("failed to parse %s", item), cause).
		WithLocation(loc)
}

// SyntaxError reports a malformed annotation.
func SyntaxError(loc SourceLocation, format string, args ...interface{}) *BaseError {
	return Newf(SyntaxErrorCode, format, args...).WithLocation(loc)
}

// RegistrationError reports a duplicate or unknown named component.
func RegistrationError(componentType, name, reason string) *BaseError {
	return Newf(RegistrationErrorCode, "%s '%s': %s", componentType, name, reason).
		WithContext("component_type", componentType).
		WithContext("name", name)
}

// DiscoveryError reports a controller that was found in source but cannot be
// turned into a runtime descriptor.
func DiscoveryError(controller string, loc SourceLocation, reason string) *BaseError {
	return Newf(DiscoveryErrorCode, "controller '%s': %s", controller, reason).
		WithLocation(loc).
		WithContext("controller", controller)
}

// ConfigurationError creates a configuration error
func ConfigurationError(configType, message string) *BaseError {
	fullMessage := fmt.Sprintf("configuration error in '%s': %s", configType, message)
	return New(ConfigurationErrorCode, fullMessage).
		WithContext("config_type", configType)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapDependencyError wraps controller instantiation errors
func WrapDependencyError(typeName string, cause error) *BaseError {
	message := fmt.Sprintf("failed to resolve controller '%s'", typeName)
	return Wrap(DependencyErrorCode, message, cause).
		WithContext("type", typeName)
}
