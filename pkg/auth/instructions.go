package auth

// TokenInstructions explains where to find a Discord token. Shown by the
// login command when invoked without a token flag.
const TokenInstructions = `To export channel history you need a Discord token.

Bot token (recommended):
  1. Open https://discord.com/developers/applications
  2. Select your application, then Bot in the sidebar
  3. Click "Reset Token" and copy the value
  4. Invite the bot to the server with the "Read Message History"
     permission

The bot must be a member of the server and able to see the channel,
otherwise fetches fail with an access error.

Tokens are stored in your system keychain when available, falling back
to an encrypted file under your user config directory. Setting
DCEXPORT_TOKEN in the environment bypasses storage entirely.`
