package code_analyzer

// Markers are the sentinel literals the model is asked to wrap file changes in.
type Markers struct {
	FileChangeStart string
	FileChangeEnd   string
	FileKey         string
	ActionKey       string
	ContentKey      string
	PatchKey        string
}

// Settings is the fixed configuration of the context pipeline. It is passed by value into the
// analyzer so a running analyzer never observes later edits.
type Settings struct {
	IgnorePatterns []string
	// ExcludeDirs are directory prefixes relative to the project root, each ending in "/".
	ExcludeDirs []string
	KeyFiles    []string
	MaxFileSizeKB  int
	MaxTotalChars  int
	Markers        Markers
}

// NoFilesFound is the shallow scan result for a directory with nothing left after filtering.
const NoFilesFound = "No files found."

var DefaultMarkers = Markers{
	FileChangeStart: "---CODEBRO_FILE_CHANGE---",
	FileChangeEnd:   "---END_CODEBRO_FILE_CHANGE---",
	FileKey:         "FILE:",
	ActionKey:       "ACTION:",
	ContentKey:      "CONTENT:",
	PatchKey:        "PATCH:",
}

// DefaultIgnorePatterns skips dependency trees, build output, lock files, binaries and secrets.
var DefaultIgnorePatterns = []string{
	"node_modules",
	".git",
	".vscode",
	".idea",
	"dist",
	"build",
	".next",
	".cache",
	".codebro",
	"coverage",
	"logs",
	"tmp",
	"temp",
	"vendor",
	"img",
	"assets",
	"package-lock.json",
	"yarn.lock",
	"*.log",
	"*.tmp",
	"*.bak",
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.svg",
	".env",
	".env.local",
}

// DefaultKeyFiles are the manifest and entry-point names that reveal a project's stack.
var DefaultKeyFiles = []string{
	"package.json",
	"tsconfig.json",
	"README.md",
	"index.ts",
	"index.js",
	"server.ts",
	"server.js",
	"App.tsx",
	"App.jsx",
	"main.ts",
	"main.js",
	"webpack.config.js",
	"vite.config.ts",
	"next.config.js",
	"tailwind.config.js",
	"dockerfile",
	"Dockerfile",
	"compose.yml",
	"docker-compose.yml",
}

// DefaultSettings returns a fresh copy of the built-in pipeline settings.
func DefaultSettings() Settings {
	return Settings{
		IgnorePatterns: append([]string(nil), DefaultIgnorePatterns...),
		KeyFiles:       append([]string(nil), DefaultKeyFiles...),
		MaxFileSizeKB:  50,
		MaxTotalChars:  100000,
		Markers:        DefaultMarkers,
	}
}

// clone detaches the slices so callers cannot mutate an analyzer's settings after construction.
func (s Settings) clone() Settings {
	s.IgnorePatterns = append([]string(nil), s.IgnorePatterns...)
	s.ExcludeDirs = append([]string(nil), s.ExcludeDirs...)
	s.KeyFiles = append([]string(nil), s.KeyFiles...)
	return s
}
