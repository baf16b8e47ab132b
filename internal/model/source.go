package model

// Path represents a file system path.
type Path string

// File represents a source file discovered while loading a corpus.
type File struct {
	Path      Path
	ShortPath Path // relative to the corpus root
	Hash      string
}
