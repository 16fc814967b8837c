package stwarp

const (
	// DefaultWorkers is the size of the conversion pool.
	DefaultWorkers = 16
	// DefaultQuality is the output JPEG quality.
	DefaultQuality = 95
)

// AllowedExtensions lists the lowercased input extensions picked up by ListImages.
var AllowedExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}

const outputExt = ".jpg"
