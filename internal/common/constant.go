package common

// SessionCookieName is the HTTP cookie carrying the signed session token.
const SessionCookieName = "session"

// ExportContentType is the content type of published export artifacts.
const ExportContentType = "text/plain; charset=utf-8"
