/*
Package export captures a rendered layout as a PNG or SVG file.

A Surface is a live subtree in some rendering engine, usually a headless
browser page (see package rodcapture). Before encoding, the Pipeline switches
off every style sheet that was loaded from a different origin, since reading
such sheets makes browser encoders fail. It then runs the Encoder with each
configured attempt in turn; the default list retries once without fonts. The
sheets are switched back on before Capture returns.

Export adds a normalized file name and hands the result to a Deliverer.
Trigger keeps a single export button from running twice at once.
*/
package export
