package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `A ballroom and latin dance practice player built with Go and Fyne.

**Features:**
- Builds practice playlists from one music subfolder per dance
- Spoken announcements before each dance
- Per-dance play limits with a fade out
- Built-in and custom practice types

Music folder layout: one folder per dance (Waltz, Tango, ...) plus an
optional announce folder holding one file per dance name.
`
