// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// SecureHeaders sets the baseline security headers on every response,
// including the uploaded-photo downloads served from /uploads.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		// Uploaded files are served back with their stored content type;
		// never let the browser sniff past it.
		h.Set("X-Content-Type-Options", "nosniff")

		// The admin screens must not be frameable from other origins.
		h.Set("X-Frame-Options", "SAMEORIGIN")

		// Legacy XSS filter off; it introduces its own injection vectors.
		h.Set("X-XSS-Protection", "0")

		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "interest-cohort=()")

		next.ServeHTTP(w, r)
	})
}
