package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Input errors

func InputMalformed(path string, cause error) *BuildError {
	return Wrap(cause, CategoryInput, SeverityFatal, "malformed report metadata").
		WithContext("path", path)
}

func InputMissing(path string, cause error) *BuildError {
	return Wrap(cause, CategoryInput, SeverityFatal, "input file unreadable").
		WithContext("path", path)
}

func InvalidReportNumber(number string) *BuildError {
	return New(CategoryValidation, SeverityFatal, "report number is not safe for use in output paths").
		WithContext("report", number)
}

// Rendering errors

// TemplateFailed reports a template that could not be located, parsed or executed.
// stage is one of "load" or "render".
func TemplateFailed(name, stage string, cause error) *BuildError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "template "+stage+" failed").
		WithContext("template", name)
}

func FileSystem(operation, path string, cause error) *BuildError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

// Build pipeline errors

func BuildFailed(stage string, cause error) *BuildError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

func DuplicateReport(number, path string) *BuildError {
	return New(CategoryValidation, SeverityFatal, "duplicate report number").
		WithContext("report", number).
		WithContext("path", path)
}
