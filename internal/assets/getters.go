package assets

import "fmt"

// Texture returns the image loaded under key.
func (l *Loader) Texture(key string) (Texture, error) {
	l.mu.RLock()
	tex, ok := l.textures[key]
	l.mu.RUnlock()
	if !ok {
		l.logger.Error("Texture not found in loaded textures", "key", key)
		return nil, fmt.Errorf("texture %q: %w", key, ErrAssetNotFound)
	}
	return tex, nil
}

// Spritesheet returns the atlas loaded under key.
func (l *Loader) Spritesheet(key string) (*Spritesheet, error) {
	l.mu.RLock()
	sheet, ok := l.sheets[key]
	l.mu.RUnlock()
	if !ok {
		l.logger.Error("Spritesheet not found in loaded spritesheets", "key", key)
		return nil, fmt.Errorf("spritesheet %q: %w", key, ErrAssetNotFound)
	}
	return sheet, nil
}

// Video returns the clip loaded under key.
func (l *Loader) Video(key string) (*VideoClip, error) {
	l.mu.RLock()
	clip, ok := l.videos[key]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("video %q: %w", key, ErrAssetNotFound)
	}
	return clip, nil
}

// Audio returns the sound loaded under key. Audio is best effort: a missing
// key is logged as a warning and reported through ok.
func (l *Loader) Audio(key string) (sound Sound, ok bool) {
	l.mu.RLock()
	sound, ok = l.audio[key]
	l.mu.RUnlock()
	if !ok {
		l.logger.Warn("Audio not found in loaded audio", "key", key)
	}
	return sound, ok
}

// LoadedAudioKeys returns the loaded audio keys in the order they finished
// loading.
func (l *Loader) LoadedAudioKeys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.audioKeys...)
}

// SVG returns the rasterized SVG loaded under key.
func (l *Loader) SVG(key string) (Texture, error) {
	l.mu.RLock()
	tex, ok := l.svgs[key]
	l.mu.RUnlock()
	if !ok {
		l.logger.Error("SVG not found in loaded SVGs", "key", key)
		return nil, fmt.Errorf("svg %q: %w", key, ErrAssetNotFound)
	}
	return tex, nil
}

// TTFFont returns the font family loaded under key.
func (l *Loader) TTFFont(key string) (Font, error) {
	l.mu.RLock()
	font, ok := l.ttf[key]
	l.mu.RUnlock()
	if !ok {
		l.logger.Error("TTF font not found in loaded fonts", "key", key)
		return nil, fmt.Errorf("ttf font %q: %w", key, ErrAssetNotFound)
	}
	return font, nil
}

// BitmapFont returns the bitmap font loaded under key.
func (l *Loader) BitmapFont(key string) (*BitmapFont, error) {
	l.mu.RLock()
	font, ok := l.bitmap[key]
	l.mu.RUnlock()
	if !ok {
		l.logger.Error("Bitmap font not found in loaded fonts", "key", key)
		return nil, fmt.Errorf("bitmap font %q: %w", key, ErrAssetNotFound)
	}
	return font, nil
}

// Loaded reports whether key has a loaded entry in category c.
func (l *Loader) Loaded(c Category, key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var ok bool
	switch c {
	case CategoryImages:
		_, ok = l.textures[key]
	case CategorySpritesheets:
		_, ok = l.sheets[key]
	case CategoryAudio:
		_, ok = l.audio[key]
	case CategoryVideos:
		_, ok = l.videos[key]
	case CategorySVGs:
		_, ok = l.svgs[key]
	case CategoryTTFFonts:
		_, ok = l.ttf[key]
	case CategoryBitmapFonts:
		_, ok = l.bitmap[key]
	}
	return ok
}
