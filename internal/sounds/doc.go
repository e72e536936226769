// Package sounds reads tracklists from BBC Sounds episode pages and from tracklist files.
//
// # Page Scraping
//
// An episode page embeds its state as a JSON object assigned inside a <script> element. [ParseEpisode] finds the
// script that mentions "Tracklist", decodes the object, and formats every track as
//
//	"<primary> - <secondary>[ <tertiary>]"
//
// where primary is normally the artist and secondary the title. The show title is read from the page's marquee
// heading. [Scraper] wraps this with an HTTP fetch.
//
// # Tracklist Files
//
// [WriteTracklist] and [ReadTracklist] store one entry per line so a scraped tracklist can be reviewed or edited
// before a playlist is built from it.
package sounds
