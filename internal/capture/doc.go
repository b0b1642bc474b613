// Package capture takes full-page screenshots of web pages.
//
// Two backends implement Capturer:
//   - FirecrawlCapturer asks the Firecrawl scrape API for a full-page
//     screenshot and downloads the returned asset.
//   - ChromeCapturer drives a local headless Chrome through chromedp.
//
// Both report failures as *Error values whose Kind is one of KindNetwork,
// KindNoResult or KindDownloadFailed, so the pipeline can surface a precise
// reason without depending on the backend.
package capture
