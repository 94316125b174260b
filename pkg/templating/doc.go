/*
Package templating renders Capyboard layouts to standalone HTML pages.

The built-in layouts are embedded html/template files, one *.tmpl.html per
studio layout plus shared *.part.html partials. A TemplateManager can load
an override directory whose files replace embedded templates of the same
name, so the branding can be changed without rebuilding.

Every layout is executed with a LayoutData: the normalized studio layout,
its canvas platform and type scale, and the composited mascot fragment.
Helper functions cover number and duration formatting (locale aware via
golang.org/x/text), accent and brand color lookup, pixel lengths, tiled
decor and small arithmetic.
*/
package templating
