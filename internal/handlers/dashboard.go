package handlers

import "github.com/gofiber/fiber/v2"

// Dashboard serves a minimal operations view over the metrics and
// recent-visits endpoints.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	html := `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Meetgo Visits</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            background: #101418;
            color: #dde3ea;
            padding: 2rem;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 { margin-bottom: 2rem; color: #5ec8fa; }
        .metrics {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }
        .metric-card {
            background: #1a2128;
            border: 1px solid #28323c;
            padding: 1.5rem;
            border-radius: 8px;
        }
        .metric-value { font-size: 2rem; font-weight: bold; color: #5ec8fa; }
        .metric-label { color: #8a97a5; margin-top: 0.5rem; }
        table {
            width: 100%;
            border-collapse: collapse;
            background: #1a2128;
            border-radius: 8px;
            overflow: hidden;
        }
        th, td { padding: 0.75rem 1rem; text-align: left; border-bottom: 1px solid #28323c; }
        th { background: #222b34; color: #5ec8fa; font-weight: 600; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Meetgo Visits</h1>

        <div class="metrics">
            <div class="metric-card">
                <div class="metric-value" id="total">-</div>
                <div class="metric-label">Total Visits</div>
            </div>
            <div class="metric-card">
                <div class="metric-value" id="enriched">-</div>
                <div class="metric-label">Enriched Visits</div>
            </div>
            <div class="metric-card">
                <div class="metric-value" id="sensor">-</div>
                <div class="metric-label">Sensor Fixes</div>
            </div>
            <div class="metric-card">
                <div class="metric-value" id="bookings">-</div>
                <div class="metric-label">Bookings</div>
            </div>
        </div>

        <h2 style="margin-bottom: 1rem;">Recent Visits</h2>
        <table>
            <thead>
                <tr>
                    <th>User</th>
                    <th>Device</th>
                    <th>Browser</th>
                    <th>City</th>
                    <th>Quality</th>
                    <th>Stored</th>
                </tr>
            </thead>
            <tbody id="visits"></tbody>
        </table>
    </div>

    <script>
        async function loadMetrics() {
            const res = await fetch('/metrics');
            const data = await res.json();
            document.getElementById('total').textContent = data.total_visits || 0;
            document.getElementById('enriched').textContent = data.enriched_visits || 0;
            document.getElementById('sensor').textContent = data.sensor_fixes || 0;
            document.getElementById('bookings').textContent = data.total_bookings || 0;
        }

        async function loadVisits() {
            const res = await fetch('/api/visits?limit=20');
            const data = await res.json();
            const tbody = document.getElementById('visits');
            tbody.innerHTML = (data.visits || []).map(v => ` + "`" + `
                <tr>
                    <td>${v.record.user}</td>
                    <td>${v.record.device.type}</td>
                    <td>${v.record.browser.name} ${v.record.browser.version}</td>
                    <td>${v.record.location.city || '-'}</td>
                    <td>${v.record.network.networkQuality}</td>
                    <td>${v.doc_id}</td>
                </tr>
            ` + "`" + `).join('');
        }

        loadMetrics();
        loadVisits();
        setInterval(() => { loadMetrics(); loadVisits(); }, 5000);
    </script>
</body>
</html>
	`

	c.Set("Content-Type", "text/html")
	return c.SendString(html)
}
