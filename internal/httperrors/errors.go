// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors classifies HTTP/network errors and renders them for humans.
// The relay uses the classifiers to decide whether a downstream failure means the
// engine could not be reached at all; the CLI uses the presenters.
package httperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
)

// IsConnectionFailure reports whether err means the remote side was never reached
// or stopped answering: timeouts, DNS failures, refused or reset connections and
// TLS handshake problems.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	return isTimeoutError(err) ||
		isDNSError(err) ||
		isConnectionRefusedError(err) ||
		isConnectionResetError(err) ||
		isSSLError(err)
}

// Describe returns a short lowercase reason for err suitable for a details field.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case isTimeoutError(err):
		return "timed out: " + err.Error()
	case isDNSError(err):
		return "cannot resolve host: " + err.Error()
	case isConnectionRefusedError(err):
		return "connection refused: " + err.Error()
	case isConnectionResetError(err):
		return "connection reset: " + err.Error()
	case isSSLError(err):
		return "secure connection failed: " + err.Error()
	default:
		return err.Error()
	}
}

// FormatNetworkError displays a friendly explanation of err and returns it wrapped.
func FormatNetworkError(err error, context string) error {
	if err == nil {
		return nil
	}

	displayErrorMessage(err, context)

	return fmt.Errorf("network error: %w", err)
}

// displayErrorMessage shows a formatted error message to the user based on error type.
func displayErrorMessage(err error, context string) {
	switch {
	case isTimeoutError(err):
		showTimeoutError(context)
	case isDNSError(err):
		showDNSError(context)
	case isConnectionRefusedError(err):
		showConnectionRefusedError(context)
	case isSSLError(err):
		showSSLError(context)
	default:
		showGenericError(context, err.Error())
	}
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isConnectionResetError checks for connections dropped by the peer.
func isConnectionResetError(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "broken pipe")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls:") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// showTimeoutError displays a user-friendly timeout error message.
func showTimeoutError(context string) {
	pterm.Printf("⏱️  Connection timeout while %s\n", context)
	pterm.Println()
	pterm.Println("The server took too long to respond. This could mean:")
	pterm.Println("  • The query engine is busy running a heavy query")
	pterm.Println("  • A firewall is silently dropping the connection")
	pterm.Println()
}

// showDNSError displays a user-friendly DNS error message.
func showDNSError(context string) {
	pterm.Printf("🌐 Cannot resolve server address while %s\n", context)
	pterm.Println()
	pterm.Println("Please check the host name in your relay or engine URL.")
	pterm.Println()
}

// showConnectionRefusedError displays a user-friendly connection refused error message.
func showConnectionRefusedError(context string) {
	pterm.Printf("🚫 Connection refused while %s\n", context)
	pterm.Println()
	pterm.Println("Nothing is listening on that address. This could mean:")
	pterm.Println("  • The relay is not running (start it with 'querydeck serve')")
	pterm.Println("  • Wrong host or port")
	pterm.Println()
}

// showSSLError displays a user-friendly SSL/TLS error message.
func showSSLError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("Cannot establish a secure connection. Check the certificate and proxy settings.")
	pterm.Println()
}

// showGenericError displays a generic error message for unrecognized errors.
func showGenericError(context string, errDetails string) {
	pterm.Printf("❌ Request failed while %s\n", context)
	pterm.Println()

	if errDetails != "" {
		shortErr := errDetails
		if len(shortErr) > 100 {
			shortErr = shortErr[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", shortErr)
		pterm.Println()
	}
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
