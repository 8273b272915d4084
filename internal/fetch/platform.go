// Package fetch - platform.go detects publishing platforms and their article selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known publishing platform.
type Platform string

const (
	// PlatformSubstack is a Substack newsletter post
	PlatformSubstack Platform = "substack"
	// PlatformMedium is a Medium story
	PlatformMedium Platform = "medium"
	// PlatformWordPress is a WordPress hosted blog or news site
	PlatformWordPress Platform = "wordpress"
	// PlatformUnknown is any other site, treated as a generic news page
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the publishing platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "substack.com" || strings.HasSuffix(host, ".substack.com"):
		return PlatformSubstack
	case host == "medium.com" || strings.HasSuffix(host, ".medium.com"):
		return PlatformMedium
	case host == "wordpress.com" || strings.HasSuffix(host, ".wordpress.com"):
		return PlatformWordPress
	default:
		return PlatformUnknown
	}
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformSubstack:
		return []string{".available-content", ".body.markup", "article"}
	case PlatformMedium:
		return []string{"article section", "article"}
	case PlatformWordPress:
		return []string{".entry-content", ".post-content", "article"}
	default:
		return ArticleSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		// Reader engagement
		".comments",
		"#comments",
		".newsletter-signup",
		".subscribe",
		".related",
		".related-articles",
		".recommended",

		// Social and share buttons
		".social-share",
		".share-buttons",
		".social-links",

		// Cookie and GDPR
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",

		"aside",
		"form",
	}

	switch platform {
	case PlatformSubstack:
		return append(common, ".subscription-widget-wrap", ".post-footer", ".button-wrapper")
	case PlatformMedium:
		return append(common, ".pw-responses", "[data-testid='audioPlayButton']")
	case PlatformWordPress:
		return append(common, ".sharedaddy", ".jp-relatedposts", ".wp-block-buttons")
	default:
		return common
	}
}
