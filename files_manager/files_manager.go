package files_manager

import (
	"fmt"
	"imgtools/contracts"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type ImageFolder = contracts.ImageFolder
type InputImage = contracts.InputImage

// mediaTypes covers extensions the mime package does not know on every
// system.
var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
	".htm":  "text/html",
	".html": "text/html",
	".pdf":  "application/pdf",
}

// DetectMediaType resolves the media type of a file from its extension,
// falling back to sniffing the first bytes of its content.
func DetectMediaType(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		mt, _, _ = strings.Cut(mt, ";")
		return mt
	}
	if len(head) == 0 {
		return "application/octet-stream"
	}
	mt, _, _ := strings.Cut(http.DetectContentType(head), ";")
	return mt
}

func IsImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}

func sniffFile(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	return head[:n]
}

// InputFromPath describes a file on disk without reading it. The bytes are
// loaded when the image is processed.
func InputFromPath(path string) InputImage {
	name := filepath.Base(path)
	mt := DetectMediaType(name, nil)
	if mt == "application/octet-stream" {
		mt = DetectMediaType(name, sniffFile(path))
	}
	return InputImage{
		Name:      name,
		MediaType: mt,
		Path:      path,
	}
}

func CheckProvidedDirs(inputRootDir string, outputDir string) error {
	if inputRootDir == "" || outputDir == "" {
		return fmt.Errorf("input and output directories required")
	}

	if stat, err := os.Stat(inputRootDir); err != nil || !stat.IsDir() {
		return fmt.Errorf("input directory %s does not exist or is not a directory", inputRootDir)
	}

	if stat, err := os.Stat(outputDir); err != nil || !stat.IsDir() {
		return fmt.Errorf("output directory %s does not exist or is not a directory", outputDir)
	}

	in, err := filepath.Abs(inputRootDir)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("input and output directories must be different")
	}
	return nil
}

// GetImagePaths lists the images directly inside dir in lexical order.
// Hidden files, including "._name" resource forks, and files that are not
// images are skipped.
func GetImagePaths(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	imageFiles := make([]string, 0, len(entries))
	var size int64 = 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !IsImage(InputFromPath(path).MediaType) {
			continue
		}
		imageFiles = append(imageFiles, path)
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
	}
	sort.Strings(imageFiles)
	return imageFiles, size, nil
}

// GetImageFolders returns one batch job per sub-directory of rootFolder
// holding at least one image. When rootFolder has no such sub-directory but
// holds images itself, it is the single job.
func GetImageFolders(rootFolder string) ([]ImageFolder, error) {
	entries, err := os.ReadDir(rootFolder)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rootFolder, err)
	}

	imageFolders := make([]ImageFolder, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subDirPath := filepath.Join(rootFolder, entry.Name())
		imageFiles, size, err := GetImagePaths(subDirPath)
		if err != nil || len(imageFiles) == 0 {
			continue
		}
		imageFolders = append(imageFolders, ImageFolder{
			ImagePaths: imageFiles,
			Name:       entry.Name(),
			Path:       subDirPath,
			ImagesSize: size,
		})
	}
	if len(imageFolders) > 0 {
		return imageFolders, nil
	}

	imageFiles, size, err := GetImagePaths(rootFolder)
	if err != nil {
		return nil, err
	}
	if len(imageFiles) == 0 {
		return []ImageFolder{}, nil
	}
	return []ImageFolder{{
		ImagePaths: imageFiles,
		Name:       filepath.Base(filepath.Clean(rootFolder)),
		Path:       rootFolder,
		ImagesSize: size,
	}}, nil
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".imgtools-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
