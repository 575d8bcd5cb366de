// Package printing renders assembled proposals to HTML with html/template and
// converts the HTML to PDF through headless Chrome (chromedp).
package printing
