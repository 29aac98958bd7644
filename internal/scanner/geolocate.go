package scanner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/infrastructure/cache"
	"LocalNewsMapper/internal/infrastructure/google"
)

const (
	businessPath = "/stories/tag/9-business"
	zipMarker    = "zip "
	zipWindow    = 15
)

var zipExpr = regexp.MustCompile(`[0-9]{5}`)

// DeriveLocales scans business page text for five digit runs in the short
// window after each "zip " marker. When no marker or no digits are found the
// fallback locale is returned instead. The result is sorted and deduplicated.
func DeriveLocales(text, fallback string) []string {
	parts := strings.Split(strings.ToLower(text), zipMarker)
	if len(parts) < 2 {
		return []string{fallback}
	}

	locales := domain.NewSet()
	for _, part := range parts[1:] {
		window := part
		if len(window) > zipWindow {
			window = window[:zipWindow]
		}
		for _, zip := range zipExpr.FindAllString(window, -1) {
			locales.Add(zip)
		}
	}
	if locales.Len() == 0 {
		return []string{fallback}
	}
	return locales.Sorted()
}

// findLocales reads the business page, retrying the download while it fails.
// A page that never arrives leaves the state name as the only locale.
func (s *SiteScanner) findLocales(ctx context.Context, site *domain.Site) ([]string, error) {
	path := s.pages.Path(site.ShortSlug, cache.PurposeBusiness)
	preferLocal := s.opts.PreferLocal

	var lastErr error
	for attempt := 1; attempt <= s.opts.LocaleAttempts; attempt++ {
		content, err := s.pages.ReadOrFetch(ctx, path, site.URL+businessPath, preferLocal)
		if err == nil {
			return DeriveLocales(string(content), site.FallbackLocale()), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		preferLocal = false
		s.debug("business page attempt failed", "site", site.Name, "attempt", attempt, "error", err)
	}

	s.debug("business page unavailable, using state", "site", site.Name, "error", lastErr)
	return []string{site.State}, nil
}

func (s *SiteScanner) geolocate(ctx context.Context, v *visit) error {
	site := v.site
	path := s.pages.Path(site.ShortSlug, cache.PurposeGeocode)

	if s.opts.PreferLocal {
		if loc, ok := s.cachedLocation(path); ok {
			site.SetLocation(loc.Address, loc.ZipCode, loc.Lat, loc.Lng)
			s.cachedLocales(site)
			return nil
		}
		s.debug("cached geocode unusable", "site", site.Name, "path", path)
	}

	locales, err := s.findLocales(ctx, site)
	if err != nil {
		return err
	}
	site.Locales = locales

	if s.geocoder != nil {
		loc, payload, err := s.geocodeLocales(ctx, site, locales)
		if err != nil {
			return err
		}
		if payload != nil {
			if err := s.pages.Write(path, payload); err != nil {
				s.warn("cache geocode", "site", site.Name, "error", err)
			}
			site.SetLocation(loc.Address, loc.ZipCode, loc.Lat, loc.Lng)
			return nil
		}
	}

	if !s.opts.PreferLocal {
		if loc, ok := s.cachedLocation(path); ok {
			s.warn("geocoding failed, using cached location", "site", site.Name, "path", path)
			site.SetLocation(loc.Address, loc.ZipCode, loc.Lat, loc.Lng)
			return nil
		}
	}

	if s.geocoder == nil {
		return fmt.Errorf("%w: no geocoding client configured", errIncomplete)
	}
	return fmt.Errorf("%w: no locale of %v could be geocoded", errIncomplete, locales)
}

// geocodeLocales tries each locale in order and returns the first usable
// answer. A nil payload means none resolved.
func (s *SiteScanner) geocodeLocales(ctx context.Context, site *domain.Site, locales []string) (google.Location, []byte, error) {
	for _, locale := range locales {
		payload, err := s.geocoder.Geocode(ctx, locale)
		if err != nil {
			if ctx.Err() != nil {
				return google.Location{}, nil, ctx.Err()
			}
			s.debug("geocode failed", "site", site.Name, "locale", locale, "error", err)
			continue
		}
		loc, err := google.ParseLocation(payload)
		if err != nil {
			s.debug("geocode without result", "site", site.Name, "locale", locale, "error", err)
			continue
		}
		return loc, payload, nil
	}
	return google.Location{}, nil, nil
}

func (s *SiteScanner) cachedLocation(path string) (google.Location, bool) {
	if !s.pages.Exists(path) {
		return google.Location{}, false
	}
	payload, err := s.pages.Read(path)
	if err != nil {
		return google.Location{}, false
	}
	loc, err := google.ParseLocation(payload)
	if err != nil {
		return google.Location{}, false
	}
	return loc, true
}

// cachedLocales fills Site.Locales from a business page already on disk.
func (s *SiteScanner) cachedLocales(site *domain.Site) {
	path := s.pages.Path(site.ShortSlug, cache.PurposeBusiness)
	if !s.pages.Exists(path) {
		return
	}
	content, err := s.pages.Read(path)
	if err != nil {
		return
	}
	site.Locales = DeriveLocales(string(content), site.FallbackLocale())
}

func (s *SiteScanner) resolveOfficials(ctx context.Context, v *visit) error {
	site := v.site
	if site.Address == nil {
		return fmt.Errorf("%w: site has no address", errIncomplete)
	}
	if site.Officials.Len() > 0 {
		return nil
	}

	path := s.pages.Path(site.ShortSlug, cache.PurposeCivic)
	payload, err := s.civicPayload(ctx, path, *site.Address)
	if err != nil {
		return err
	}

	linked, err := google.ApplyCivicInfo(s.reg, site, payload)
	if err != nil {
		return err
	}
	s.debug("officials resolved", "site", site.Name, "linked", linked)
	return nil
}

// civicPayload prefers the cached answer in local mode. Otherwise the API is
// asked first and a cached answer, if any, stands in when it fails.
func (s *SiteScanner) civicPayload(ctx context.Context, path, address string) ([]byte, error) {
	if s.opts.PreferLocal && s.pages.Exists(path) {
		return s.pages.Read(path)
	}

	apiErr := fmt.Errorf("%w: no civic information client configured", errIncomplete)
	if s.civic != nil {
		payload, err := s.civic.Representatives(ctx, address)
		if err == nil {
			if err := s.pages.Write(path, payload); err != nil && !errors.Is(err, cache.ErrNoContent) {
				s.warn("cache civic info", "path", path, "error", err)
			}
			return payload, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		apiErr = err
	}

	if s.pages.Exists(path) {
		s.warn("civic information unavailable, using cached answer", "path", path, "error", apiErr)
		return s.pages.Read(path)
	}
	return nil, apiErr
}
