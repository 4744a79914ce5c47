package cv

import (
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/google/uuid"

	"talent-pipeline/internal/errors"
)

// Parser extracts text from uploaded CV files. docconv works on paths, so
// each file is written to a transient cache file first.
type Parser struct {
	uploadsDir string
	allowed    []string
}

// NewParser caches files under uploadsDir and accepts the given extensions
// (without dots).
func NewParser(uploadsDir string, allowed []string) *Parser {
	exts := make([]string, 0, len(allowed))
	for _, ext := range allowed {
		exts = append(exts, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}
	return &Parser{
		uploadsDir: uploadsDir,
		allowed:    exts,
	}
}

// ValidateExtension rejects files whose extension is not allow-listed.
func (p *Parser) ValidateExtension(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, a := range p.allowed {
		if ext == a {
			return nil
		}
	}
	return errors.WithHintf(
		errors.Validationf("file extension not allowed: %s", filename),
		"allowed extensions are %s", strings.Join(p.allowed, ", "))
}

// SaveCacheFile writes data to a uniquely named file in the uploads folder.
func (p *Parser) SaveCacheFile(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(p.uploadsDir, 0755); err != nil {
		return "", errors.Wrap(err, "create uploads dir")
	}

	filePath := filepath.Join(p.uploadsDir, uuid.NewString()+"_"+filepath.Base(filename))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", errors.Wrapf(err, "save cache file for %s", filename)
	}
	return filePath, nil
}

func (p *Parser) RemoveCacheFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove cache file %s", path)
	}
	return nil
}

// Extract returns the text of the file at path.
func (p *Parser) Extract(path string) (string, error) {
	fileType := strings.ToLower(filepath.Ext(path))

	switch fileType {
	case ".pdf", ".docx", ".doc", ".rtf", ".odt":
		res, err := docconv.ConvertPath(path)
		if err != nil {
			return "", errors.Wrapf(err, "parse %s document", fileType)
		}
		return strings.TrimSpace(res.Body), nil
	case ".txt":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrap(err, "read text file")
		}
		return strings.TrimSpace(string(content)), nil
	default:
		return "", errors.Validationf("unsupported file type: %s", fileType)
	}
}

// ExtractBytes caches data, extracts its text and removes the cache file.
func (p *Parser) ExtractBytes(filename string, data []byte) (string, error) {
	path, err := p.SaveCacheFile(filename, data)
	if err != nil {
		return "", err
	}
	defer p.RemoveCacheFile(path)

	return p.Extract(path)
}

// ContentType maps a CV filename to the MIME type it is stored with.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
