package airbnb

import "fmt"

// cardsScript returns up to limit result cards as {title, price, rating,
// url, lines}. lines holds the card's visible text so capacity and review
// counts can be parsed in Go, where selectors do not need to be kept in sync.
func cardsScript(limit int) string {
	return fmt.Sprintf(`
		(function() {
			var limit = %d;
			var out = [];
			var seen = {};

			function textLines(el) {
				return (el ? el.innerText : '').split('\n')
					.map(function(l) { return l.trim(); })
					.filter(Boolean);
			}
			function firstText(card, selectors) {
				for (var i = 0; i < selectors.length; i++) {
					var el = card.querySelector(selectors[i]);
					if (el && el.innerText.trim()) return el.innerText.trim();
				}
				return '';
			}

			var cards = document.querySelectorAll(
				'[data-testid="card-container"], [itemprop="itemListElement"]');
			if (cards.length === 0) {
				var links = document.querySelectorAll('a[href*="/rooms/"]');
				cards = Array.prototype.map.call(links, function(a) {
					return a.closest('[role="group"]') || a.parentElement;
				});
			}

			for (var i = 0; i < cards.length && out.length < limit; i++) {
				var card = cards[i];
				if (!card) continue;
				var link = card.querySelector('a[href*="/rooms/"]') ||
				           (card.matches && card.matches('a[href*="/rooms/"]') ? card : null);
				if (!link || !link.href || seen[link.href]) continue;
				seen[link.href] = true;

				var lines = textLines(card);
				var price = firstText(card, [
					'[data-testid="price-availability-row"]', 'span[class*="price"]']);
				var m = price.match(/[$€£]\s*[\d,]+(\s*x\s*\d+\s*nights?)?/);
				if (m) price = m[0];
				if (!price) price = lines.find(function(l) { return /[$€£]/.test(l); }) || '';

				var rating = '';
				var ratingEl = card.querySelector('[aria-label*="rating"]');
				if (ratingEl) {
					var r = (ratingEl.getAttribute('aria-label') || ratingEl.innerText).match(/\d\.\d+/);
					if (r) rating = r[0];
				}

				out.push({
					title:    firstText(card, ['[data-testid="listing-card-title"]']) || lines[0] || '',
					location: firstText(card, ['[data-testid="listing-card-subtitle"]']),
					price:    price,
					rating:   rating,
					url:      link.href,
					lines:    lines
				});
			}
			return out;
		})()
	`, limit)
}

const nextPageScript = `
	(function() {
		var next = document.querySelector('a[aria-label="Next"]') ||
		           document.querySelector('nav a[href*="items_offset"]');
		return next && next.href ? next.href : '';
	})()
`

// detailScript reads a room page: the overview line ("4 guests · 2 bedrooms
// · 1 bath") goes into lines, the amenity section into amenities.
const detailScript = `
	(function() {
		var out = {title: '', price: '', location: '', rating: '', url: location.href, lines: [], amenities: []};

		var h1 = document.querySelector('h1');
		if (h1) out.title = h1.innerText.trim();

		var price = document.querySelector('[data-testid="book-it-default"]');
		if (price) {
			var m = price.innerText.match(/[$€£]\s*[\d,]+(\s*x\s*\d+\s*nights?)?/);
			if (m) out.price = m[0];
		}

		var overview = document.querySelector('[data-section-id^="OVERVIEW"]');
		if (overview) {
			overview.querySelectorAll('li, h2').forEach(function(el) {
				out.lines.push(el.innerText.replace(/·/g, '').trim());
			});
			var sub = overview.querySelector('h2');
			if (sub) out.location = sub.innerText.split(' in ').pop().trim();
		}

		var reviews = document.querySelector('[data-testid="pdp-reviews-highlight-banner-host-rating"]') ||
		              document.querySelector('button[aria-label*="review"]');
		if (reviews) {
			var text = reviews.getAttribute('aria-label') || reviews.innerText;
			var r = text.match(/\d\.\d+/);
			if (r) out.rating = r[0];
			out.lines.push(text);
		}

		document.querySelectorAll('[data-section-id^="AMENITIES"] [id*="amenity"], [data-section-id^="AMENITIES"] div > div')
			.forEach(function(el) {
				var name = el.innerText.split('\n')[0].trim();
				if (name && name.length < 60 && out.amenities.indexOf(name) < 0) out.amenities.push(name);
			});
		return out;
	})()
`
