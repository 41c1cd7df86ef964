// Package webui serves the xterm.js browser frontend that talks to
// wsbridge's binary-frame protocol.
//
// Adapted from blaxel-ai-sandbox/sandbox-api's
// src/handler/terminal/frontend.go: same xterm.js/Tokyo-Night shell,
// rewired from that teacher's JSON-output-message protocol to
// wsbridge's binary-PTY-frame protocol, and given a session-name field
// since this module is multi-session rather than one-session-per-box.
package webui

import "fmt"

// GetTerminalHTML renders the browser terminal page. defaultSession is
// pre-filled into the session-name field.
func GetTerminalHTML(defaultSession string) string {
	return fmt.Sprintf(pageTemplate, defaultSession)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>termhub</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@xterm/xterm@5.5.0/css/xterm.css">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        html, body { height: 100%%; width: 100%%; overflow: hidden; background: #1a1b26; }
        #terminal { position: absolute; top: 32px; bottom: 0; left: 0; right: 0; }
        .xterm { height: 100%%; padding: 8px; }
        #bar {
            height: 32px;
            display: flex;
            align-items: center;
            gap: 8px;
            padding: 0 8px;
            font-family: monospace;
            font-size: 12px;
            background: #16161e;
            color: #a9b1d6;
        }
        #bar input {
            background: #1a1b26;
            color: #c0caf5;
            border: 1px solid #414868;
            padding: 2px 6px;
            font-family: monospace;
            font-size: 12px;
        }
        #status { margin-left: auto; }
        .status-connecting { color: #e0af68; }
        .status-connected { color: #9ece6a; }
        .status-disconnected { color: #f7768e; }
    </style>
</head>
<body>
    <div id="bar">
        <label for="session">session</label>
        <input id="session" value="%s">
        <span id="status" class="status-connecting">connecting...</span>
    </div>
    <div id="terminal"></div>

    <script src="https://cdn.jsdelivr.net/npm/@xterm/xterm@5.5.0/lib/xterm.min.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/@xterm/addon-fit@0.10.0/lib/addon-fit.min.js"></script>
    <script>
        const statusEl = document.getElementById('status');
        const sessionEl = document.getElementById('session');

        function setStatus(status, text) {
            statusEl.className = 'status-' + status;
            statusEl.textContent = text;
        }

        const theme = {
            background: '#1a1b26', foreground: '#c0caf5',
            cursor: '#c0caf5', cursorAccent: '#1a1b26',
            selectionBackground: '#33467c',
            black: '#15161e', red: '#f7768e', green: '#9ece6a', yellow: '#e0af68',
            blue: '#7aa2f7', magenta: '#bb9af7', cyan: '#7dcfff', white: '#a9b1d6',
            brightBlack: '#414868', brightRed: '#f7768e', brightGreen: '#9ece6a',
            brightYellow: '#e0af68', brightBlue: '#7aa2f7', brightMagenta: '#bb9af7',
            brightCyan: '#7dcfff', brightWhite: '#c0caf5'
        };

        const term = new Terminal({
            cursorBlink: true, fontSize: 14,
            fontFamily: 'Menlo, Monaco, "Courier New", monospace',
            theme: theme, allowProposedApi: true
        });
        const fitAddon = new FitAddon.FitAddon();
        term.loadAddon(fitAddon);
        term.open(document.getElementById('terminal'));
        fitAddon.fit();

        let ws = null;
        let reconnectAttempts = 0;
        const maxReconnectAttempts = 5;

        function wsURL() {
            const protocol = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
            const name = encodeURIComponent(sessionEl.value || 'default');
            return protocol + '//' + window.location.host + '/terminal/ws?name=' + name +
                '&cols=' + term.cols + '&rows=' + term.rows;
        }

        function connect() {
            setStatus('connecting', 'connecting...');
            ws = new WebSocket(wsURL());
            ws.binaryType = 'arraybuffer';

            ws.onopen = function() {
                setStatus('connected', 'connected');
                reconnectAttempts = 0;
                term.focus();
            };

            ws.onmessage = function(event) {
                if (event.data instanceof ArrayBuffer) {
                    term.write(new Uint8Array(event.data));
                } else {
                    term.write('\r\n\x1b[31m' + event.data + '\x1b[0m\r\n');
                }
            };

            ws.onclose = function() {
                setStatus('disconnected', 'disconnected');
                if (reconnectAttempts < maxReconnectAttempts) {
                    reconnectAttempts++;
                    setTimeout(connect, 1000 * reconnectAttempts);
                } else {
                    term.write('\r\n\x1b[31mconnection lost, refresh to reconnect\x1b[0m\r\n');
                }
            };
        }

        term.onData(function(data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ type: 'input', data: data }));
            }
        });

        function sendResize() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ type: 'resize', cols: term.cols, rows: term.rows }));
            }
        }

        window.addEventListener('resize', function() {
            fitAddon.fit();
            sendResize();
        });

        sessionEl.addEventListener('change', function() {
            if (ws) { ws.close(); }
            term.reset();
            connect();
        });

        connect();
    </script>
</body>
</html>`
