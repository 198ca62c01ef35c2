package config

// ChecksConfig tunes the general checks.
// Zero values keep the built-in defaults.
type ChecksConfig struct {
	// ImportantExtensions are extensions whose files are hashed into the
	// cache so changes are detected even when size and mtime do not move.
	ImportantExtensions []string `yaml:"importantExtensions,omitempty"`

	// FastqExtensions are the extensions treated as uncompressed FASTQ.
	FastqExtensions []string `yaml:"fastqExtensions,omitempty"`

	// ImageExtensions are the extensions inspected for GPS metadata.
	ImageExtensions []string `yaml:"imageExtensions,omitempty"`

	// LargeFileThreshold is the size in bytes above which plain-text files
	// are reported.
	LargeFileThreshold int64 `yaml:"largeFileThreshold,omitempty"`
}

// IgnoreConfig adds ignore patterns on top of the .botbotignore file.
type IgnoreConfig struct {
	// Patterns use the same syntax as lines of .botbotignore.
	Patterns []string `yaml:"patterns,omitempty"`
}

// File represents the structure of the .botbot configuration file.
type File struct {
	Checks ChecksConfig `yaml:"checks,omitempty"`
	Ignore IgnoreConfig `yaml:"ignore,omitempty"`
}

// NewFile returns an empty configuration file.
func NewFile() *File {
	return &File{}
}

// ImportantExtensions returns the configured important extensions, or nil
// when the built-in list should be used.
func (f *File) ImportantExtensions() []string {
	if f == nil || len(f.Checks.ImportantExtensions) == 0 {
		return nil
	}
	return f.Checks.ImportantExtensions
}

// IgnorePatterns returns the extra ignore patterns.
func (f *File) IgnorePatterns() []string {
	if f == nil {
		return nil
	}
	return f.Ignore.Patterns
}
