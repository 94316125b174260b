/*
Package studio holds the brand rules and layout values behind the Capyboard
content generator.

It knows the canvas size and type scale of every publishing platform, the
accent and brand palettes, and the five layouts: episode release, highlight
cover, event announcement, viewer stats and video overlays. Layout values are
immutable; the With setters return normalized copies, and Decode builds a
normalized layout from a JSON object laid over the layout's defaults.
*/
package studio
