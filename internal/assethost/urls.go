package assethost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oumaimagaidi/TicketFlow/internal/domain"
)

const (
	deliveryHost   = "res.cloudinary.com"
	attachmentFlag = "fl_attachment"
)

var errNoDelivery = errors.New("assethost: cannot derive delivery url")

// resolveResourceType picks the delivery pathway for a handle. PDF documents
// must go through raw delivery so viewers don't try to render them inline;
// everything else uses the stored resource type, defaulting to image.
func resolveResourceType(handle *domain.AttachmentHandle) string {
	if handle == nil {
		return "image"
	}
	if strings.EqualFold(handle.Format, "pdf") {
		return "raw"
	}
	if handle.ResourceType != "" {
		return handle.ResourceType
	}
	return "image"
}

// RawURL derives the host's canonical URL for the stored object. Empty when
// there is no attachment or the adapter is unconfigured.
func (c *Client) RawURL(handle *domain.AttachmentHandle) string {
	url, err := c.deliveryURL(handle, handleResourceType(handle), false)
	if err != nil {
		return ""
	}
	return url
}

func handleResourceType(handle *domain.AttachmentHandle) string {
	if handle != nil && handle.ResourceType != "" {
		return handle.ResourceType
	}
	return "image"
}

// ViewURL derives the inline-display URL. No forced-download flag is added.
func (c *Client) ViewURL(handle *domain.AttachmentHandle) string {
	url, err := c.deliveryURL(handle, resolveResourceType(handle), false)
	if err != nil {
		return ""
	}
	return url
}

// DownloadURL derives the forced-attachment URL. When the primary
// derivation fails it falls back to rewriting the raw URL, and finally to
// empty; it never returns an error to read paths.
func (c *Client) DownloadURL(handle *domain.AttachmentHandle) string {
	url, err := c.deliveryURL(handle, resolveResourceType(handle), true)
	if err == nil {
		return url
	}
	return RewriteDownloadURL(c.RawURL(handle))
}

func (c *Client) deliveryURL(handle *domain.AttachmentHandle, resourceType string, forceDownload bool) (string, error) {
	if handle == nil || handle.PublicID == "" || c.cloudName == "" {
		return "", errNoDelivery
	}
	segments := []string{"https:/", deliveryHost, c.cloudName, resourceType, "upload"}
	if forceDownload {
		segments = append(segments, attachmentFlag)
	}
	segments = append(segments, handle.PublicID)

	url := strings.Join(segments, "/")
	if handle.Format != "" && !strings.HasSuffix(url, "."+handle.Format) {
		url = fmt.Sprintf("%s.%s", url, handle.Format)
	}
	return url, nil
}

// RewriteDownloadURL inserts the force-download marker into an existing
// delivery URL. This is the last-resort path when the primary derivation is
// unavailable: the first /upload/ segment gets the marker appended, with
// /image/ and /raw/ handled for URLs that lack an upload segment. URLs that
// do not belong to the host, or that already carry the marker, pass through
// untouched. Empty input stays empty.
func RewriteDownloadURL(url string) string {
	if url == "" {
		return ""
	}
	if !strings.Contains(url, "cloudinary.com") || strings.Contains(url, attachmentFlag) {
		return url
	}
	switch {
	case strings.Contains(url, "/upload/"):
		return strings.Replace(url, "/upload/", "/upload/"+attachmentFlag+"/", 1)
	case strings.Contains(url, "/image/"):
		return strings.Replace(url, "/image/", "/image/upload/"+attachmentFlag+"/", 1)
	case strings.Contains(url, "/raw/"):
		return strings.Replace(url, "/raw/", "/raw/upload/"+attachmentFlag+"/", 1)
	}
	return url
}
