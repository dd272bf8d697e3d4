package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to keep aggregate documents compact and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxTemplateNameLength is the maximum length for template names.
	// Same as folder names for consistency.
	MaxTemplateNameLength = 255

	// MaxEntityNameLength is the maximum length for entity display names
	// coming back from the CRM. Longer names are rejected at sync time.
	MaxEntityNameLength = 255

	// MaxTemplateFolders caps the number of top-level folders a single
	// template may declare. A template larger than this indicates the
	// structure should be split across several templates instead.
	MaxTemplateFolders = 50
)
