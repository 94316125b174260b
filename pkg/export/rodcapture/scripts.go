package rodcapture

// sheetAttr tags <link> and <style> elements so they can be found again
// after being disabled, which removes them from document.styleSheets.
const sheetAttr = "data-capyboard-sheet"

const listSheetsJS = `(attr) => {
	const out = [];
	let next = document.querySelectorAll('[' + attr + ']').length;
	document.querySelectorAll('link[rel~="stylesheet"], style').forEach((el) => {
		if (!el.hasAttribute(attr)) el.setAttribute(attr, String(next++));
		const linked = el.tagName === 'LINK';
		out.push({
			id: el.getAttribute(attr),
			href: linked ? (el.getAttribute('href') || '') : '',
			linked: linked,
			disabled: !!(el.disabled || (el.sheet && el.sheet.disabled)),
		});
	});
	return JSON.stringify(out);
}`

const setSheetDisabledJS = `(attr, id, disabled) => {
	const el = document.querySelector('[' + attr + '="' + id + '"]');
	if (!el) return false;
	el.disabled = disabled;
	return true;
}`

const viewportJS = `() => JSON.stringify({width: window.innerWidth, height: window.innerHeight})`

// cacheBustJS reloads every image under the element with a unique query
// parameter and waits for them to settle.
const cacheBustJS = `function () {
	const stamp = Date.now().toString(36);
	const waits = [];
	this.querySelectorAll('img').forEach((img, i) => {
		const src = img.getAttribute('src');
		if (!src || src.startsWith('data:')) return;
		const url = new URL(src, document.baseURI);
		url.searchParams.set('_cb', stamp + i);
		waits.push(new Promise((resolve) => {
			img.addEventListener('load', resolve, {once: true});
			img.addEventListener('error', resolve, {once: true});
		}));
		img.src = url.toString();
	});
	return Promise.all(waits).then(() => waits.length);
}`

// fontsJS reads the rules of every enabled sheet, which throws for
// cross-origin sheets, then waits for web fonts.
const fontsJS = `async () => {
	for (const sheet of Array.from(document.styleSheets)) {
		if (!sheet.disabled) void sheet.cssRules.length;
	}
	await document.fonts.ready;
	return true;
}`

// vectorJS clones the element with computed styles inlined and wraps it in
// an SVG foreignObject.
const vectorJS = `function (skipFonts) {
	const rect = this.getBoundingClientRect();
	const width = Math.ceil(rect.width), height = Math.ceil(rect.height);

	const inline = (src, dst) => {
		if (src.nodeType !== Node.ELEMENT_NODE) return;
		const cs = window.getComputedStyle(src);
		let css = '';
		for (let i = 0; i < cs.length; i++) {
			const p = cs[i];
			css += p + ':' + cs.getPropertyValue(p) + ';';
		}
		dst.setAttribute('style', css);
		for (let i = 0; i < src.childNodes.length; i++) {
			inline(src.childNodes[i], dst.childNodes[i]);
		}
	};
	const clone = this.cloneNode(true);
	inline(this, clone);
	clone.setAttribute('xmlns', 'http://www.w3.org/1999/xhtml');

	let fonts = '';
	if (!skipFonts) {
		for (const sheet of Array.from(document.styleSheets)) {
			if (sheet.disabled) continue;
			for (const rule of Array.from(sheet.cssRules)) {
				if (rule.type === CSSRule.FONT_FACE_RULE) fonts += rule.cssText + '\n';
			}
		}
	}

	const ser = new XMLSerializer();
	let out = '<svg xmlns="http://www.w3.org/2000/svg" width="' + width + '" height="' + height +
		'" viewBox="0 0 ' + width + ' ' + height + '">';
	if (fonts) {
		const style = document.createElementNS('http://www.w3.org/2000/svg', 'style');
		style.textContent = fonts;
		out += ser.serializeToString(style);
	}
	out += '<foreignObject x="0" y="0" width="100%" height="100%">' + ser.serializeToString(clone) + '</foreignObject></svg>';
	return out;
}`
