package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryService hosts product images the bot sends to customers.
type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

var Cloudinary *CloudinaryService

func InitializeCloudinary(cloudinaryURL string) error {
	if cloudinaryURL == "" {
		return fmt.Errorf("cloudinary URL is required")
	}

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	Cloudinary = &CloudinaryService{cld: cld}
	return nil
}

// UploadProductImage uploads image bytes and returns the HTTPS URL to
// store on the product.
func (cs *CloudinaryService) UploadProductImage(ctx context.Context, data []byte, filename string) (string, error) {
	publicID := fmt.Sprintf("products/%s_%d",
		strings.TrimSuffix(filename, filepath.Ext(filename)), time.Now().UnixNano())

	result, err := cs.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       "products",
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	url := result.SecureURL
	if url == "" {
		url = forceHTTPS(result.URL)
	}
	return url, nil
}

// forceHTTPS ensures Cloudinary URLs use https scheme
func forceHTTPS(in string) string {
	if in == "" {
		return in
	}
	out := strings.TrimSpace(in)
	out = strings.Replace(out, "http://", "https://", 1)
	return out
}
