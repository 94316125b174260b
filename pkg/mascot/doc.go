/*
Package mascot composes the capybara mascot from a base SVG and a small set of
overlay images.

A Request names an eye state and a set of add-on decorations, or the older
single Expression value. The Compositor resolves it, and when overlays are
needed it fetches the base markup, strips or recolors the eye groups, and
returns an ordered stack of layers that a renderer can draw as HTML or flatten
into a single SVG document.

Requests that need no overlays never touch the AssetSource. Fetch failures
degrade the render instead of failing it.
*/
package mascot
