// Package ioutils provides file system and image processing utilities.
//
// This package contains:
//   - Filename sanitization for cross-platform archives
//   - AtomicWriter: temp-file-then-rename writes over an afero.Fs
//   - Image MIME inference, resizing and JPEG conversion for cover art
//
// # Atomic Writes
//
//	w := ioutils.NewAtomicWriter(afero.NewOsFs())
//	n, err := w.WriteFrom(dest, body, contentLength, nil)
//
// A failed transfer never leaves a partial file under dest.
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Ep #1: A/B Test?", 80) // "Ep-#1-AB-Test"
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	resized, _ := svc.ResizeImage(ctx, imageData, 1400, 1400)
//	jpeg, _ := svc.ConvertToJPEG(ctx, pngData)
package ioutils
